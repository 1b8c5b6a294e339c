package auth

import "errors"

// Caller-facing errors form a closed taxonomy. Store-level failures are
// translated into one of these at the service boundary and never leaked raw.
var (
	ErrUnauthorized       = errors.New("auth: unauthorized")
	ErrWrongCredentials   = errors.New("auth: wrong credentials")
	ErrMissingCredentials = errors.New("auth: missing credentials")
	ErrTokenCreation      = errors.New("auth: token creation failed")
	ErrInvalidToken       = errors.New("auth: token is invalid or expired")
	ErrServerError        = errors.New("auth: required external service not accessible")
	ErrDuplicated         = errors.New("auth: content already exists")
)

// Parse errors for the canonical string forms.
var (
	ErrUnknownRole      = errors.New("auth: unknown role")
	ErrUnknownTokenType = errors.New("auth: unknown token type")
)
