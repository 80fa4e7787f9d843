package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// tokenKeyBytes gives 40-character hex keys.
const tokenKeyBytes = 20

// TokenIssuer keeps every user at no more than one live bearer token.
// Callers run its methods inside a transaction that already holds the
// user's row lock.
type TokenIssuer struct {
	repomanager repomanager.RepositoryManager
	newKey      func() (string, error)
}

func NewTokenIssuer(m repomanager.RepositoryManager) *TokenIssuer {
	return &TokenIssuer{
		repomanager: m,
		newKey:      func() (string, error) { return common.MakeRandHexString(tokenKeyBytes) },
	}
}

// GetOrCreate returns the user's token, minting one if none exists.
func (i *TokenIssuer) GetOrCreate(ctx context.Context, db dbx.DBTX, userID string) (*models.AuthToken, error) {
	repo := i.repomanager.AuthTokens(db)

	token, err := repo.GetByUser(ctx, userID)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error searching token: %w", err)
	}
	return i.mint(ctx, db, userID)
}

// Reissue revokes the user's token, if any, and mints a replacement.
func (i *TokenIssuer) Reissue(ctx context.Context, db dbx.DBTX, userID string) (*models.AuthToken, error) {
	if err := i.repomanager.AuthTokens(db).DeleteByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("error revoking token: %w", err)
	}
	return i.mint(ctx, db, userID)
}

func (i *TokenIssuer) mint(ctx context.Context, db dbx.DBTX, userID string) (*models.AuthToken, error) {
	key, err := i.newKey()
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}
	token, err := i.repomanager.AuthTokens(db).Create(ctx, userID, key)
	if err != nil {
		return nil, fmt.Errorf("error creating token: %w", err)
	}
	return token, nil
}
