package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tibs245/oria-auth/internal/auth"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db), mock
}

func TestCredentialStoreAdd(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("insert into credentials").
		WithArgs(sqlmock.AnyArg(), "alice", sqlmock.AnyArg(), "User", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "last_modified_at"}).AddRow(now, now))

	cred, err := store.Credentials().Add(context.Background(), &auth.UserCredential{
		Username:       "alice",
		PasswordHash:   "$argon2id$v=19$m=65536,t=2,p=1$c2FsdA$aGFzaA",
		Role:           auth.RoleUser,
		CreatedAt:      now,
		LastModifiedAt: now,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if cred.ID == "" {
		t.Fatalf("expected assigned id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCredentialStoreAddTranslatesUniqueViolation(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("insert into credentials").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	_, err := store.Credentials().Add(context.Background(), &auth.UserCredential{
		Username:     "alice",
		PasswordHash: "hash",
		Role:         auth.RoleUser,
	})
	if !errors.Is(err, auth.ErrDuplicated) {
		t.Fatalf("expected ErrDuplicated, got %v", err)
	}
}

func TestCredentialStoreAddRejectsPopulatedID(t *testing.T) {
	store, _ := newMock(t)

	_, err := store.Credentials().Add(context.Background(), &auth.UserCredential{
		ID:           "cred-1",
		Username:     "alice",
		PasswordHash: "hash",
	})
	if !errors.Is(err, auth.ErrMalformedRequest) {
		t.Fatalf("expected ErrMalformedRequest, got %v", err)
	}
}

func TestCredentialStoreGetByUsername(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("select id, username, password_hash, role, created_at, last_modified_at").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "username", "password_hash", "role", "created_at", "last_modified_at"},
		).AddRow("cred-1", "alice", "hash", "Moderator", now, now))

	cred, err := store.Credentials().GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if cred.ID != "cred-1" || cred.Role != auth.RoleModerator {
		t.Fatalf("unexpected credential %+v", cred)
	}
}

func TestCredentialStoreGetByUsernameNotFound(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("select id, username, password_hash, role, created_at, last_modified_at").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at", "last_modified_at"}))

	_, err := store.Credentials().GetByUsername(context.Background(), "ghost")
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
