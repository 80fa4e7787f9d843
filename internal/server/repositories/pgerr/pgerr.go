// Package pgerr translates PostgreSQL driver errors into the sentinel errors
// of package common.
package pgerr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// UniqueViolation reports whether err is a unique_violation and, if so,
// the name of the violated constraint.
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// Conflict converts a unique_violation into a *common.ConflictError naming the
// field behind the constraint, as listed in fields. It returns nil when err
// is not a unique violation.
func Conflict(err error, fields map[string]string) error {
	constraint, ok := UniqueViolation(err)
	if !ok {
		return nil
	}
	field, known := fields[constraint]
	if !known {
		field = constraint
	}
	return &common.ConflictError{Field: field, Err: err}
}
