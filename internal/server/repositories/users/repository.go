// Package users declares the repository contract for user accounts and its
// PostgreSQL implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository defines persistence operations for user accounts.
// Lookups return common.ErrorNotFound when no row matches; writes that hit a
// unique constraint return a *common.ConflictError naming the field.
type Repository interface {
	// Create inserts user and fills in CreatedAt.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)

	// Update persists the profile fields (email, username, city, region,
	// phone number). The password hash is not touched.
	Update(ctx context.Context, user *models.User) error

	// SetPassword replaces the stored password hash.
	SetPassword(ctx context.Context, id string, hash string) error

	// LockForUpdate takes a row lock on the user for the rest of the
	// surrounding transaction. Outside a transaction it is a plain existence check.
	LockForUpdate(ctx context.Context, id string) error
}
