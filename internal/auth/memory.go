package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tibs245/oria-auth/internal/ids"
)

// MemoryCredentialStore is an in-process CredentialStore for tests and the
// single-node dev server.
type MemoryCredentialStore struct {
	mu         sync.RWMutex
	byUsername map[string]*UserCredential
}

// NewMemoryCredentialStore returns an empty in-memory credential store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{byUsername: make(map[string]*UserCredential)}
}

func (s *MemoryCredentialStore) Add(ctx context.Context, cred *UserCredential) (*UserCredential, error) {
	if cred == nil || cred.Username == "" || cred.PasswordHash == "" {
		return nil, ErrMalformedRequest
	}
	if cred.ID != "" {
		return nil, fmt.Errorf("%w: id must be assigned by the store", ErrMalformedRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byUsername[cred.Username]; exists {
		return nil, ErrDuplicated
	}
	stored := *cred
	stored.ID = ids.New()
	s.byUsername[stored.Username] = &stored
	out := stored
	return &out, nil
}

func (s *MemoryCredentialStore) GetByUsername(ctx context.Context, username string) (*UserCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	out := *cred
	return &out, nil
}

// MemoryTokenStore is an in-process TokenStore. Records are indexed by
// refresh token ID, the lookup key of the rotation path.
type MemoryTokenStore struct {
	mu          sync.RWMutex
	byRefreshID map[string]*TokenRecord
}

// NewMemoryTokenStore returns an empty in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{byRefreshID: make(map[string]*TokenRecord)}
}

func (s *MemoryTokenStore) Add(ctx context.Context, rec *TokenRecord) (*TokenRecord, error) {
	if rec == nil || rec.Username == "" || rec.AccessTokenID == "" || rec.RefreshTokenID == "" {
		return nil, ErrMalformedRequest
	}
	if rec.ID != "" {
		return nil, fmt.Errorf("%w: id must be assigned by the store", ErrMalformedRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byRefreshID[rec.RefreshTokenID]; exists {
		return nil, ErrDuplicated
	}
	stored := *rec
	stored.ID = ids.New()
	s.byRefreshID[stored.RefreshTokenID] = &stored
	out := stored
	return &out, nil
}

func (s *MemoryTokenStore) GetByRefreshID(ctx context.Context, refreshTokenID string) (*TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byRefreshID[refreshTokenID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (s *MemoryTokenStore) GetAllForUser(ctx context.Context, username string) ([]*TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*TokenRecord
	for _, rec := range s.byRefreshID {
		if rec.Username == username {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Revoke marks the record live under refreshTokenID revoked. The check and
// the write happen under one lock, so of N concurrent rotations exactly one
// returns the record and the rest get ErrNotFound.
func (s *MemoryTokenStore) Revoke(ctx context.Context, refreshTokenID string) (*TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byRefreshID[refreshTokenID]
	if !ok || rec.Revoked() {
		return nil, ErrNotFound
	}
	now := time.Now().UTC()
	rec.RevokedAt = &now
	out := *rec
	return &out, nil
}
