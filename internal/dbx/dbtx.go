// Package dbx provides tiny DB abstractions shared by repositories and
// services: a minimal interface (DBTX) implemented by both *sql.DB and
// *sql.Tx, a helper to run functions inside a transaction, and a Transactor
// seam so services can be exercised without a database.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc is the unit of work run by WithTx and Transactor.InTx.
type TxFunc func(ctx context.Context, tx DBTX) error

// Transactor runs a unit of work inside a transaction. Services depend on
// it rather than on *sql.DB directly.
type Transactor interface {
	// Conn returns a non-transactional handle for single-statement reads and writes.
	Conn() DBTX
	// InTx runs fn in a transaction, committing on nil and rolling back otherwise.
	InTx(ctx context.Context, fn TxFunc) error
}

// SQLTransactor is the database/sql implementation of Transactor.
type SQLTransactor struct {
	db   *sql.DB
	opts *sql.TxOptions
}

// NewSQLTransactor binds a Transactor to db. opts may be nil.
func NewSQLTransactor(db *sql.DB, opts *sql.TxOptions) *SQLTransactor {
	return &SQLTransactor{db: db, opts: opts}
}

func (t *SQLTransactor) Conn() DBTX { return t.db }

func (t *SQLTransactor) InTx(ctx context.Context, fn TxFunc) error {
	return WithTx(ctx, t.db, t.opts, fn)
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
