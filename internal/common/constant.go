// Package common contains shared constants and sentinel errors used across
// gophauth components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// Accepted schemes for the Authorization header. "Token" is what the web
// client sends; "Bearer" is accepted for API tooling.
const (
	TokenScheme  = "Token"
	BearerScheme = "Bearer"
)
