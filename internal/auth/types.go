package auth

import (
	"fmt"
	"time"
)

// Role is the access level held by an authenticated identity.
type Role string

const (
	RoleSuperAdmin Role = "SuperAdmin"
	RoleAdmin      Role = "Admin"
	RoleModerator  Role = "Moderator"
	RoleUser       Role = "User"
	RoleNone       Role = "None"
)

// ParseRole converts the canonical string form back into a Role.
// Unknown strings are an error, never a default role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSuperAdmin, RoleAdmin, RoleModerator, RoleUser, RoleNone:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// TokenType distinguishes the two halves of an issued pair. It travels in
// the token's subject claim.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// ParseTokenType converts a subject claim into a TokenType.
func ParseTokenType(s string) (TokenType, error) {
	switch TokenType(s) {
	case TokenTypeAccess, TokenTypeRefresh:
		return TokenType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTokenType, s)
	}
}

// UserCredential is a stored username/password-hash record. The identity is
// assigned by the credential store and must be empty on insert.
type UserCredential struct {
	ID             string
	Username       string
	PasswordHash   string
	Role           Role
	CreatedAt      time.Time
	LastModifiedAt time.Time
}

// TokenRecord represents one issuance: an access/refresh pair born together.
// Records are never deleted; rotation marks them revoked and creates a
// replacement record.
type TokenRecord struct {
	ID               string
	Username         string
	AccessTokenID    string
	RefreshTokenID   string
	CreatedAt        time.Time
	RevokedAt        *time.Time
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Revoked reports whether the record has been consumed or invalidated.
func (r *TokenRecord) Revoked() bool { return r.RevokedAt != nil }

// AnonymousUsername identifies requests that presented no credentials on a
// public endpoint.
const AnonymousUsername = "anonymous"

// Session is the request-scoped identity resolved by the guard.
type Session struct {
	Username string
	Role     Role
}

// AnonymousSession is the identity attached to credential-less requests on
// public endpoints.
func AnonymousSession() Session {
	return Session{Username: AnonymousUsername, Role: RoleNone}
}

// Anonymous reports whether the session belongs to an unauthenticated caller.
func (s Session) Anonymous() bool { return s.Role == RoleNone }
