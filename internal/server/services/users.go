// Package services contains server-side business logic. UserService drives
// the account lifecycle: registration, login with get-or-create bearer
// tokens, profile access, logout with token rotation and the email-driven
// password reset.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/mail"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

const (
	ResetSubject        = "reset your password"
	ForgotPasswordReply = "please check your email!"

	msgEmailTaken = "user with this email already exists."
	msgPhoneTaken = "user with this phone number already exists."
)

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token string
	Email string
}

type UserService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	tokens      *TokenIssuer
	resets      *ResetTokenGenerator
	mailer      mail.Sender
	logger      logging.Logger

	frontendBaseURL string
	mailFrom        string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(
	tx dbx.Transactor,
	m repomanager.RepositoryManager,
	hasher auth.PasswordHasher,
	mailer mail.Sender,
	cfg *config.Config,
	logger logging.Logger,
) *UserService {
	return &UserService{
		tx:              tx,
		repomanager:     m,
		hasher:          hasher,
		tokens:          NewTokenIssuer(m),
		resets:          NewResetTokenGenerator(m, cfg.ResetTokenAttempts),
		mailer:          mailer,
		logger:          logger.With("module", "users"),
		frontendBaseURL: strings.TrimRight(cfg.FrontendBaseURL, "/"),
		mailFrom:        cfg.MailFrom,
	}
}

// Register creates an account. The username is taken from the email's
// local part here and nowhere else.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if ve := validate(in); ve != nil {
		return nil, ve
	}

	repo := s.repomanager.Users(s.tx.Conn())

	ve := &common.ValidationError{}
	if err := s.checkEmailFree(ctx, repo, in.Email, ""); err != nil {
		if !isValidation(err) {
			return nil, err
		}
		ve.Add("email", msgEmailTaken)
	}
	if in.PhoneNumber != nil && *in.PhoneNumber != "" {
		if err := s.checkPhoneFree(ctx, repo, *in.PhoneNumber, ""); err != nil {
			if !isValidation(err) {
				return nil, err
			}
			ve.Add("phone_number", msgPhoneTaken)
		}
	}
	if !ve.Empty() {
		return nil, ve
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Username:     models.DeriveUsername(in.Email),
		PasswordHash: hash,
		City:         in.City,
		Region:       in.Region,
		PhoneNumber:  emptyToNil(in.PhoneNumber),
	}

	user, err = repo.Create(ctx, user)
	if err != nil {
		if cve := conflictToValidation(err); cve != nil {
			return nil, cve
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and returns the user's bearer token, creating
// it on first use. Repeated logins return the same token.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if ve := validate(in); ve != nil {
		return nil, ve
	}

	user, err := s.repomanager.Users(s.tx.Conn()).GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, in.Password)
	if err != nil {
		return nil, fmt.Errorf("error verifying password: %w", err)
	}
	if !ok {
		return nil, common.ErrorAuthenticationFailed
	}

	var token *models.AuthToken
	err = s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).LockForUpdate(ctx, user.ID); err != nil {
			return fmt.Errorf("error locking user: %w", err)
		}
		var err error
		token, err = s.tokens.GetOrCreate(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token.Key, Email: user.Email}, nil
}

// Authenticate resolves a presented bearer key to its user.
// Unknown keys yield common.ErrInvalidToken.
func (s *UserService) Authenticate(ctx context.Context, key string) (*models.User, error) {
	if key == "" {
		return nil, common.ErrInvalidToken
	}

	db := s.tx.Conn()
	token, err := s.repomanager.AuthTokens(db).GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching token: %w", err)
	}

	user, err := s.repomanager.Users(db).GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.tx.Conn()).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of patch. If any field is
// invalid or already taken, nothing is written and every problem is
// reported in one *common.ValidationError.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*models.User, error) {
	if ve := validate(patch); ve != nil {
		return nil, ve
	}

	var updated *models.User
	err := s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		if err := repo.LockForUpdate(ctx, userID); err != nil {
			return fmt.Errorf("error locking user: %w", err)
		}
		user, err := repo.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("error searching user: %w", err)
		}

		ve := &common.ValidationError{}
		if patch.Email != nil && *patch.Email != user.Email {
			if err := s.checkEmailFree(ctx, repo, *patch.Email, userID); err != nil {
				if !isValidation(err) {
					return err
				}
				ve.Add("email", msgEmailTaken)
			}
		}
		if patch.PhoneNumber != nil && *patch.PhoneNumber != "" {
			if err := s.checkPhoneFree(ctx, repo, *patch.PhoneNumber, userID); err != nil {
				if !isValidation(err) {
					return err
				}
				ve.Add("phone_number", msgPhoneTaken)
			}
		}
		if !ve.Empty() {
			return ve
		}

		applyPatch(user, patch)
		if err := repo.Update(ctx, user); err != nil {
			if cve := conflictToValidation(err); cve != nil {
				return cve
			}
			return fmt.Errorf("error updating user: %w", err)
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Logout revokes the user's token and immediately mints a replacement that
// is not handed out; the next Login returns it.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	return s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).LockForUpdate(ctx, userID); err != nil {
			return fmt.Errorf("error locking user: %w", err)
		}
		_, err := s.tokens.Reissue(ctx, tx, userID)
		return err
	})
}

// ForgotPassword records a reset token for the address and mails a link to
// it. The address is not checked against registered users, so the reply is
// the same whether or not an account exists.
func (s *UserService) ForgotPassword(ctx context.Context, in ForgotPasswordInput) (string, error) {
	if ve := validate(in); ve != nil {
		return "", ve
	}

	reset, err := s.resets.Issue(ctx, s.tx.Conn(), in.Email)
	if err != nil {
		return "", err
	}

	msg := mail.Message{
		From:     s.mailFrom,
		To:       in.Email,
		Subject:  ResetSubject,
		HTMLBody: s.resetBody(reset.Token),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return "", fmt.Errorf("error sending reset email: %w", err)
	}

	return ForgotPasswordReply, nil
}

// ResetPassword sets a new password for the account bound to the reset
// token. Mismatched confirmation is rejected before anything is read.
// The reset record stays valid after use.
func (s *UserService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if in.Password != in.PasswordConfirm {
		return common.ErrorPasswordMismatch
	}
	if ve := validate(in); ve != nil {
		return ve
	}

	db := s.tx.Conn()
	reset, err := s.repomanager.PasswordResets(db).GetByToken(ctx, in.Token)
	if err != nil {
		return fmt.Errorf("error searching reset token: %w", err)
	}

	users := s.repomanager.Users(db)
	user, err := users.GetByEmail(ctx, reset.Email)
	if err != nil {
		return fmt.Errorf("error searching user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := users.SetPassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("error saving password: %w", err)
	}

	s.logger.Info(ctx, "password reset", "user_id", user.ID)
	return nil
}

// --- helpers below ---

type userLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
}

// checkEmailFree returns a *common.ValidationError when email belongs to a
// user other than selfID.
func (s *UserService) checkEmailFree(ctx context.Context, repo userLookup, email, selfID string) error {
	u, err := repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("error searching user: %w", err)
	case u.ID == selfID:
		return nil
	}
	return common.NewValidationError("email", msgEmailTaken)
}

func (s *UserService) checkPhoneFree(ctx context.Context, repo userLookup, phone, selfID string) error {
	u, err := repo.GetByPhone(ctx, phone)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("error searching user: %w", err)
	case u.ID == selfID:
		return nil
	}
	return common.NewValidationError("phone_number", msgPhoneTaken)
}

func (s *UserService) resetBody(token string) string {
	return `Click <a href="` + s.frontendBaseURL + `/reset/` + token + `"> here </a>to reset your password`
}

func applyPatch(u *models.User, p ProfilePatch) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.City != nil {
		u.City = *p.City
	}
	if p.Region != nil {
		u.Region = *p.Region
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = emptyToNil(p.PhoneNumber)
	}
}

// conflictToValidation turns a unique-constraint race lost at write time into
// the same validation error the pre-check would have produced.
func conflictToValidation(err error) *common.ValidationError {
	var conflict *common.ConflictError
	if !errors.As(err, &conflict) {
		return nil
	}
	switch conflict.Field {
	case "email":
		return common.NewValidationError("email", msgEmailTaken)
	case "phone_number":
		return common.NewValidationError("phone_number", msgPhoneTaken)
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func isValidation(err error) bool {
	var ve *common.ValidationError
	return errors.As(err, &ve)
}
