package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tibs245/oria-auth/internal/auth"
	"github.com/tibs245/oria-auth/internal/ids"
)

var _ auth.TokenStore = (*TokenStore)(nil)

// TokenStore implements auth.TokenStore on Postgres.
type TokenStore struct {
	db *sql.DB
}

const tokenRecordColumns = `id, username, access_token_id, refresh_token_id, created_at, revoked_at, access_expires_at, refresh_expires_at`

func (s *TokenStore) Add(ctx context.Context, rec *auth.TokenRecord) (*auth.TokenRecord, error) {
	if rec == nil || rec.Username == "" || rec.AccessTokenID == "" || rec.RefreshTokenID == "" {
		return nil, auth.ErrMalformedRequest
	}
	if rec.ID != "" {
		return nil, auth.ErrMalformedRequest
	}
	stored := *rec
	stored.ID = ids.New()
	_, err := s.db.ExecContext(ctx, `
		insert into token_records (id, username, access_token_id, refresh_token_id, created_at, access_expires_at, refresh_expires_at)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, stored.ID, stored.Username, stored.AccessTokenID, stored.RefreshTokenID, stored.CreatedAt, stored.AccessExpiresAt, stored.RefreshExpiresAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return nil, auth.ErrDuplicated
		}
		return nil, storeError(err)
	}
	return &stored, nil
}

func (s *TokenStore) GetByRefreshID(ctx context.Context, refreshTokenID string) (*auth.TokenRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+tokenRecordColumns+`
		from token_records
		where refresh_token_id = $1
	`, refreshTokenID)
	rec, err := scanTokenRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, storeError(err)
	}
	return rec, nil
}

func (s *TokenStore) GetAllForUser(ctx context.Context, username string) ([]*auth.TokenRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+tokenRecordColumns+`
		from token_records
		where username = $1
		order by created_at desc
	`, username)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	var recs []*auth.TokenRecord
	for rows.Next() {
		rec, err := scanTokenRecord(rows)
		if err != nil {
			return nil, storeError(err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return recs, nil
}

// Revoke marks the live record for refreshTokenID revoked. The revoked_at
// guard in the where clause makes the operation a compare-and-set: of N
// concurrent rotations of the same refresh token exactly one row update
// succeeds and the rest see ErrNotFound.
func (s *TokenStore) Revoke(ctx context.Context, refreshTokenID string) (*auth.TokenRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		update token_records
		set revoked_at = now()
		where refresh_token_id = $1 and revoked_at is null
		returning `+tokenRecordColumns+`
	`, refreshTokenID)
	rec, err := scanTokenRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, storeError(err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTokenRecord(row rowScanner) (*auth.TokenRecord, error) {
	var (
		rec     auth.TokenRecord
		revoked sql.NullTime
	)
	if err := row.Scan(
		&rec.ID, &rec.Username, &rec.AccessTokenID, &rec.RefreshTokenID,
		&rec.CreatedAt, &revoked, &rec.AccessExpiresAt, &rec.RefreshExpiresAt,
	); err != nil {
		return nil, err
	}
	if revoked.Valid {
		t := revoked.Time
		rec.RevokedAt = &t
	}
	return &rec, nil
}
