package model

import "fmt"

// Session cookie and token settings.
const (
	SessionCookieName = "session_token"
	OAuthStateTTLSecs = 600
)

// Supported OAuth providers.
const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// Token API error codes (used in HTTP responses)
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

var (
	ErrUnknownProvider = fmt.Errorf("%w: unknown oauth provider", ErrInvalidOperation)
	ErrInvalidState    = fmt.Errorf("%w: invalid or expired oauth state", ErrUnauthorized)
)

// LoginResponse is returned by the OAuth callback when the client asked for JSON.
type LoginResponse struct {
	User      *User  `json:"user"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}

var (
	ErrTokenExpired = fmt.Errorf("%w: session token expired", ErrUnauthorized)
	ErrTokenInvalid = fmt.Errorf("%w: invalid session token", ErrUnauthorized)
)
