package auth

import (
	"context"
	"errors"
)

// Store-level errors. Backends map their native failures onto these so the
// service layer can translate without knowing which backend is wired in.
var (
	ErrNotFound         = errors.New("auth: not found")
	ErrMalformedRequest = errors.New("auth: malformed store request")
	ErrStoreInternal    = errors.New("auth: store internal error")
	ErrStoreUnavailable = errors.New("auth: store unavailable")
)

// CredentialStore persists user credentials. Add assigns the record ID and
// rejects a populated one; duplicate usernames surface as ErrDuplicated.
type CredentialStore interface {
	Add(ctx context.Context, cred *UserCredential) (*UserCredential, error)
	GetByUsername(ctx context.Context, username string) (*UserCredential, error)
}

// TokenStore persists issuance records. Revoke is conditional: it marks the
// record matched by refresh token ID revoked only if it is still live, and
// returns ErrNotFound otherwise, so concurrent rotations of the same refresh
// token resolve to a single winner.
type TokenStore interface {
	Add(ctx context.Context, rec *TokenRecord) (*TokenRecord, error)
	GetByRefreshID(ctx context.Context, refreshTokenID string) (*TokenRecord, error)
	GetAllForUser(ctx context.Context, username string) ([]*TokenRecord, error)
	Revoke(ctx context.Context, refreshTokenID string) (*TokenRecord, error)
}
