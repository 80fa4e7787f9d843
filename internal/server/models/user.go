// Package models defines server-side data models persisted in the database.
package models

import (
	"strings"
	"time"
)

// User is an account. Email is the login key; Username is derived from the
// email's local part when the account is created and never recomputed.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	City         string
	Region       string
	// PhoneNumber is nil when the user has not supplied one; the column is
	// unique only among non-null values.
	PhoneNumber *string
	CreatedAt   time.Time
}

// DeriveUsername returns the local part of email (everything before the
// first "@"), or the whole string when there is no "@".
func DeriveUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
