package passwordresets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/pgerr"
)

var uniqueFields = map[string]string{
	"password_resets_token_key": "token",
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, email string, token string) (*models.PasswordReset, error) {
	query := `
		INSERT INTO password_resets (email, token)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	reset := &models.PasswordReset{Email: email, Token: token}
	if err := r.db.QueryRowContext(ctx, query, email, token).Scan(&reset.ID, &reset.CreatedAt); err != nil {
		if conflict := pgerr.Conflict(err, uniqueFields); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return reset, nil
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	query := `
		SELECT id, email, token, created_at
		FROM password_resets
		WHERE token = $1
	`
	reset := &models.PasswordReset{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&reset.ID, &reset.Email, &reset.Token, &reset.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return reset, nil
}
