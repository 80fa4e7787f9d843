// Package passwordresets stores reset tokens issued by the forgot-password flow.
package passwordresets

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	// Create stores a reset record. A token collision returns a
	// *common.ConflictError with Field "token".
	Create(ctx context.Context, email string, token string) (*models.PasswordReset, error)

	// GetByToken returns the record holding token, or common.ErrorNotFound.
	GetByToken(ctx context.Context, token string) (*models.PasswordReset, error)
}
