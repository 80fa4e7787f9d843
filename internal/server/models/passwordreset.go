package models

import "time"

// PasswordReset binds an email address to a reset token. Several records
// may exist per email; Token is globally unique.
type PasswordReset struct {
	ID        int64
	Email     string
	Token     string
	CreatedAt time.Time
}
