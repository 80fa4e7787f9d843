package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

const (
	ResetTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ResetTokenLength   = 12
)

// ResetTokenGenerator issues password reset records with random tokens.
// A token that collides with a stored one is replaced and the insert
// retried, up to attempts times in total.
type ResetTokenGenerator struct {
	repomanager repomanager.RepositoryManager
	attempts    int
	delay       time.Duration
	newToken    func() (string, error)
}

func NewResetTokenGenerator(m repomanager.RepositoryManager, attempts int) *ResetTokenGenerator {
	if attempts < 1 {
		attempts = 1
	}
	return &ResetTokenGenerator{
		repomanager: m,
		attempts:    attempts,
		delay:       10 * time.Millisecond,
		newToken: func() (string, error) {
			return common.MakeRandString(ResetTokenAlphabet, ResetTokenLength)
		},
	}
}

// Issue stores a new PasswordReset for email.
func (g *ResetTokenGenerator) Issue(ctx context.Context, db dbx.DBTX, email string) (*models.PasswordReset, error) {
	repo := g.repomanager.PasswordResets(db)
	backoff := retry.WithMaxRetries(uint64(g.attempts-1), retry.NewConstant(g.delay))

	var reset *models.PasswordReset
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		token, err := g.newToken()
		if err != nil {
			return fmt.Errorf("error generating reset token: %w", err)
		}

		r, err := repo.Create(ctx, email, token)
		if err != nil {
			var conflict *common.ConflictError
			if errors.As(err, &conflict) && conflict.Field == "token" {
				return retry.RetryableError(err)
			}
			return fmt.Errorf("error storing reset token: %w", err)
		}
		reset = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reset, nil
}
