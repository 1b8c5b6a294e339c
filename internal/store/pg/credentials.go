package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tibs245/oria-auth/internal/auth"
	"github.com/tibs245/oria-auth/internal/ids"
)

var _ auth.CredentialStore = (*CredentialStore)(nil)

// CredentialStore implements auth.CredentialStore on Postgres.
type CredentialStore struct {
	db *sql.DB
}

func (s *CredentialStore) Add(ctx context.Context, cred *auth.UserCredential) (*auth.UserCredential, error) {
	if cred == nil || cred.Username == "" || cred.PasswordHash == "" {
		return nil, auth.ErrMalformedRequest
	}
	if cred.ID != "" {
		return nil, auth.ErrMalformedRequest
	}
	stored := *cred
	stored.ID = ids.New()
	row := s.db.QueryRowContext(ctx, `
		insert into credentials (id, username, password_hash, role, created_at, last_modified_at)
		values ($1, $2, $3, $4, $5, $6)
		returning created_at, last_modified_at
	`, stored.ID, stored.Username, stored.PasswordHash, string(stored.Role), stored.CreatedAt, stored.LastModifiedAt)
	if err := row.Scan(&stored.CreatedAt, &stored.LastModifiedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return nil, auth.ErrDuplicated
		}
		return nil, storeError(err)
	}
	return &stored, nil
}

func (s *CredentialStore) GetByUsername(ctx context.Context, username string) (*auth.UserCredential, error) {
	var (
		cred auth.UserCredential
		role string
	)
	err := s.db.QueryRowContext(ctx, `
		select id, username, password_hash, role, created_at, last_modified_at
		from credentials
		where username = $1
	`, username).Scan(&cred.ID, &cred.Username, &cred.PasswordHash, &role, &cred.CreatedAt, &cred.LastModifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, storeError(err)
	}
	parsed, err := auth.ParseRole(role)
	if err != nil {
		return nil, auth.ErrStoreInternal
	}
	cred.Role = parsed
	return &cred, nil
}

func storeError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", auth.ErrStoreInternal, err)
}
