package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/authtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/passwordresets"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either the pool or a
// transaction, so services can compose several of them in one unit of work.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	AuthTokens(db dbx.DBTX) authtokens.Repository
	PasswordResets(db dbx.DBTX) passwordresets.Repository
}
