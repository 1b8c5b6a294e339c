package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultAccessTTL  = 10 * time.Minute
	defaultRefreshTTL = 24 * time.Hour
)

// Service orchestrates credential management, token issuance and rotation.
// It owns the caller-facing error taxonomy: every store and codec failure is
// translated before it leaves this package.
type Service struct {
	credentials CredentialStore
	tokens      TokenStore
	codec       *Codec

	now        func() time.Time
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithClock overrides the time source. Tests use it to step past expiries.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithAccessTTL overrides the access token lifetime.
func WithAccessTTL(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.accessTTL = d
		}
	}
}

// WithRefreshTTL overrides the refresh token lifetime.
func WithRefreshTTL(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.refreshTTL = d
		}
	}
}

// NewService wires the stores and codec into a Service.
func NewService(credentials CredentialStore, tokens TokenStore, codec *Codec, opts ...ServiceOption) *Service {
	s := &Service{
		credentials: credentials,
		tokens:      tokens,
		codec:       codec,
		now:         time.Now,
		accessTTL:   defaultAccessTTL,
		refreshTTL:  defaultRefreshTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TokenPair is the result of one issuance: both signed tokens plus the
// persisted record that binds them.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Record       *TokenRecord
}

// CreateCredentials registers a new username with a hashed password. The
// plaintext password never reaches a store. An empty role defaults to User.
func (s *Service) CreateCredentials(ctx context.Context, username, password string, role Role) (*UserCredential, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if role == "" {
		role = RoleUser
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, ErrServerError
	}
	now := s.now().UTC()
	cred := &UserCredential{
		Username:       username,
		PasswordHash:   hash,
		Role:           role,
		CreatedAt:      now,
		LastModifiedAt: now,
	}
	stored, err := s.credentials.Add(ctx, cred)
	if err != nil {
		if errors.Is(err, ErrDuplicated) {
			return nil, ErrDuplicated
		}
		return nil, ErrServerError
	}
	return stored, nil
}

// Login verifies a username/password pair and issues a fresh token pair.
// Unknown usernames and bad passwords are indistinguishable to the caller:
// both come back as ErrWrongCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	cred, err := s.credentials.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrWrongCredentials
		}
		return nil, ErrServerError
	}
	if err := VerifyPassword(cred.PasswordHash, password); err != nil {
		return nil, ErrWrongCredentials
	}
	return s.issue(ctx, cred.Username, cred.Role)
}

// issue mints an access/refresh pair and persists the record binding them.
// The record is durable before either token string is released.
func (s *Service) issue(ctx context.Context, username string, role Role) (*TokenPair, error) {
	now := s.now().UTC()
	accessID := uuid.NewString()
	refreshID := uuid.NewString()
	accessExpiry := now.Add(s.accessTTL)
	refreshExpiry := now.Add(s.refreshTTL)

	accessToken, err := s.codec.Sign(TokenTypeAccess, accessID, username, role, accessExpiry)
	if err != nil {
		return nil, ErrTokenCreation
	}
	refreshToken, err := s.codec.Sign(TokenTypeRefresh, refreshID, username, "", refreshExpiry)
	if err != nil {
		return nil, ErrTokenCreation
	}

	rec := &TokenRecord{
		Username:         username,
		AccessTokenID:    accessID,
		RefreshTokenID:   refreshID,
		CreatedAt:        now,
		AccessExpiresAt:  accessExpiry,
		RefreshExpiresAt: refreshExpiry,
	}
	stored, err := s.tokens.Add(ctx, rec)
	if err != nil {
		return nil, ErrServerError
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, Record: stored}, nil
}

// Refresh rotates a token pair. The presented refresh token is verified,
// matched against its live record, revoked, and only then is a replacement
// pair issued. A refresh token can win this exchange at most once; replays
// and concurrent losers come back as ErrInvalidToken.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Type() != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	rec, err := s.tokens.GetByRefreshID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, ErrServerError
	}
	now := s.now().UTC()
	if rec.Revoked() || !now.Before(rec.RefreshExpiresAt) {
		return nil, ErrInvalidToken
	}

	cred, err := s.credentials.GetByUsername(ctx, rec.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, ErrServerError
	}

	// Revoke before reissue. If the revoke is lost to a concurrent rotation
	// the whole exchange fails; a refresh token never yields two pairs.
	if _, err := s.tokens.Revoke(ctx, rec.RefreshTokenID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, ErrServerError
	}
	return s.issue(ctx, cred.Username, cred.Role)
}

// AuthenticateAccessToken verifies an access token and resolves the session
// it represents. Refresh tokens are rejected; they prove the right to rotate,
// not the right to act.
func (s *Service) AuthenticateAccessToken(token string) (Session, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	if claims.Type() != TokenTypeAccess {
		return Session{}, ErrInvalidToken
	}
	return Session{Username: claims.Username, Role: claims.Role}, nil
}

// SessionsForUser lists every issuance record for the user, revoked ones
// included, newest state as stored.
func (s *Service) SessionsForUser(ctx context.Context, username string) ([]*TokenRecord, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrMissingCredentials
	}
	recs, err := s.tokens.GetAllForUser(ctx, username)
	if err != nil {
		return nil, ErrServerError
	}
	return recs, nil
}
