package authtokens

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
	"auth_tokens_pkey":    "user_id",
	"auth_tokens_key_key": "key",
}

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByUser(ctx context.Context, userID string) (*models.AuthToken, error) {
	query := `
		SELECT key, user_id, created_at
		FROM auth_tokens
		WHERE user_id = $1
	`
	return r.getOne(ctx, query, userID)
}

func (r *PostgresRepository) GetByKey(ctx context.Context, key string) (*models.AuthToken, error) {
	query := `
		SELECT key, user_id, created_at
		FROM auth_tokens
		WHERE key = $1
	`
	return r.getOne(ctx, query, key)
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, key string) (*models.AuthToken, error) {
	query := `
		INSERT INTO auth_tokens (user_id, key)
		VALUES ($1, $2)
		RETURNING created_at
	`
	token := &models.AuthToken{Key: key, UserID: userID}
	if err := r.db.QueryRowContext(ctx, query, userID, key).Scan(&token.CreatedAt); err != nil {
		if conflict := pgerr.Conflict(err, uniqueFields); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) error {
	query := `
		DELETE FROM auth_tokens
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.AuthToken, error) {
	token := &models.AuthToken{}
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&token.Key, &token.UserID, &token.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}
