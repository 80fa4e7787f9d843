package models

import "time"

// AuthToken is the single live bearer token of a user.
type AuthToken struct {
	Key       string
	UserID    string
	CreatedAt time.Time
}
