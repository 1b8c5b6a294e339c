package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded, signature-verified payload of a token. The subject
// carries the token type, the ID claim (jti) matches a TokenRecord's access
// or refresh identifier, and the role travels only on access tokens so a
// stale refresh token can never escalate privileges.
type Claims struct {
	Username string `json:"username"`
	Role     Role   `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Type returns the token type encoded in the subject claim. Only meaningful
// on claims returned by Codec.Verify, which guarantees the subject parses.
func (c *Claims) Type() TokenType {
	return TokenType(c.Subject)
}

// Codec signs and verifies claim sets with the configured Ed25519 key pair.
type Codec struct {
	keys *KeyPair
	now  func() time.Time
}

// NewCodec wraps the key pair. The key material is read-only; a single Codec
// is safe for concurrent use.
func NewCodec(keys *KeyPair) *Codec {
	return &Codec{keys: keys, now: time.Now}
}

// Sign builds and signs a token of the given type. The role is embedded only
// for access tokens; refresh tokens carry the username alone.
func (c *Codec) Sign(tt TokenType, tokenID, username string, role Role, expiresAt time.Time) (string, error) {
	now := c.now().UTC()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(tt),
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if tt == TokenTypeAccess {
		claims.Role = role
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(c.keys.Private)
	if err != nil {
		return "", ErrTokenCreation
	}
	return signed, nil
}

// Verify checks the signature and structural completeness of a token and
// returns its claims. Every failure mode, bad signature, malformed string,
// missing required field, unknown subject, collapses into ErrInvalidToken so
// the response never reveals which check rejected a forged token. Revocation
// and record expiry are the validator's responsibility, layered on top.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodEdDSA {
			return nil, ErrInvalidToken
		}
		return c.keys.Public, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := claims.validate(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// validate enforces the structural shape required for the declared subject.
func (c *Claims) validate() error {
	tt, err := ParseTokenType(c.Subject)
	if err != nil {
		return err
	}
	if strings.TrimSpace(c.ID) == "" {
		return ErrInvalidToken
	}
	if strings.TrimSpace(c.Username) == "" {
		return ErrInvalidToken
	}
	if c.ExpiresAt == nil || c.IssuedAt == nil {
		return ErrInvalidToken
	}
	switch tt {
	case TokenTypeAccess:
		role, err := ParseRole(string(c.Role))
		if err != nil {
			return err
		}
		c.Role = role
	case TokenTypeRefresh:
		// Refresh claims never carry a role; drop one if present.
		c.Role = ""
	}
	return nil
}
