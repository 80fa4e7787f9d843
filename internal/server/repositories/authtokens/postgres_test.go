package authtokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestGetByUser(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	q := `(?s)^\s*SELECT\s+key,\s*user_id,\s*created_at\s+FROM\s+auth_tokens\s+WHERE\s+user_id\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"key", "user_id", "created_at"}).AddRow("k1", "u1", now))

	tok, err := repo.GetByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "k1", tok.Key)
	assert.Equal(t, "u1", tok.UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByKey_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^\s*SELECT\s+key,.*FROM\s+auth_tokens\s+WHERE\s+key\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByKey(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByKey_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+auth_tokens`).WillReturnError(errors.New("conn reset"))

	_, err := repo.GetByKey(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: conn reset")
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	q := `(?s)^\s*INSERT\s+INTO\s+auth_tokens\s*\(user_id,\s*key\)\s*VALUES\s*\(\$1,\s*\$2\)\s*RETURNING\s+created_at\s*$`
	mock.ExpectQuery(q).WithArgs("u1", "k1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	tok, err := repo.Create(context.Background(), "u1", "k1")
	require.NoError(t, err)
	assert.Equal(t, "k1", tok.Key)
	assert.True(t, tok.CreatedAt.Equal(now))
}

func TestCreate_UserAlreadyHasToken(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+auth_tokens`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "auth_tokens_pkey"})

	_, err := repo.Create(context.Background(), "u1", "k1")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	var conflict *common.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "user_id", conflict.Field)
}

func TestDeleteByUser(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^\s*DELETE\s+FROM\s+auth_tokens\s+WHERE\s+user_id\s*=\s*\$1\s*$`
	mock.ExpectExec(q).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	// absent row is not an error
	mock.ExpectExec(q).WithArgs("u2").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteByUser(context.Background(), "u1"))
	require.NoError(t, repo.DeleteByUser(context.Background(), "u2"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByUser_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`DELETE\s+FROM\s+auth_tokens`).WillReturnError(errors.New("boom"))

	err := repo.DeleteByUser(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: boom")
}
