// Package authtokens declares the repository contract for bearer tokens.
// A user has at most one token row.
package authtokens

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository defines operations for issuing, resolving and revoking bearer tokens.
type Repository interface {
	// GetByUser returns the token of userID, or common.ErrorNotFound.
	GetByUser(ctx context.Context, userID string) (*models.AuthToken, error)

	// GetByKey resolves a presented key to its token row, or common.ErrorNotFound.
	GetByKey(ctx context.Context, key string) (*models.AuthToken, error)

	// Create stores a token for userID. If the user already has one, or the key
	// is taken, it returns an error matching common.ErrorAlreadyExists.
	Create(ctx context.Context, userID string, key string) (*models.AuthToken, error)

	// DeleteByUser removes the token of userID. Deleting a non-existent
	// token is not an error.
	DeleteByUser(ctx context.Context, userID string) error
}
