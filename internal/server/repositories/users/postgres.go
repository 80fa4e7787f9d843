package users

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
	"users_email_key":        "email",
	"users_phone_number_key": "phone_number",
}

const selectUser = `SELECT id, email, username, password, city, region, phone_number, created_at FROM users`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, email, username, password, city, region, phone_number)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash, user.City, user.Region, nullable(user.PhoneNumber),
	).Scan(&user.CreatedAt)
	if err != nil {
		if conflict := pgerr.Conflict(err, uniqueFields); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE phone_number = $1`, phone)
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users
		 SET email = $2, username = $3, city = $4, region = $5, phone_number = $6
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Username, user.City, user.Region, nullable(user.PhoneNumber))
	if err != nil {
		if conflict := pgerr.Conflict(err, uniqueFields); conflict != nil {
			return conflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) SetPassword(ctx context.Context, id string, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) LockForUpdate(ctx context.Context, id string) error {
	var locked string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	var phone sql.NullString

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash,
		&user.City, &user.Region, &phone, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if phone.Valid {
		user.PhoneNumber = &phone.String
	}
	return user, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
