package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tibs245/oria-auth/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var errMissingBearer = errors.New("missing bearer token")

// guard wraps a handler with a privilege requirement. It resolves the
// caller's session from the Authorization header and rejects the request
// unless the session's role satisfies the required privilege.
//
// A request without a usable bearer token proceeds anonymously only where
// anonymity can possibly satisfy the requirement: AnonymousOnly endpoints
// and Allow endpoints (refresh carries its token in the body, not the
// header). A token that is present but fails verification never falls back
// to anonymous except on AnonymousOnly endpoints, where the caller is
// treated as unauthenticated regardless of what it sent.
func (a *API) guard(required auth.Privilege, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if required == auth.PrivilegeDeny {
			writeError(w, r, http.StatusUnauthorized, "access denied")
			return
		}

		session := auth.AnonymousSession()
		token, err := extractBearerToken(r.Header.Get(authHeader))
		switch {
		case err != nil:
			if required != auth.PrivilegeAnonymousOnly && required != auth.PrivilegeAllow {
				writeError(w, r, http.StatusUnauthorized, "missing credentials")
				return
			}
		default:
			resolved, verr := a.service.AuthenticateAccessToken(token)
			if verr != nil {
				if required != auth.PrivilegeAnonymousOnly {
					writeError(w, r, http.StatusUnauthorized, "token is invalid or expired")
					return
				}
			} else {
				session = resolved
			}
		}

		// AnonymousOnly is a negative grant: no resolved role satisfies it,
		// only the absence of one.
		if required == auth.PrivilegeAnonymousOnly {
			if !session.Anonymous() {
				writeError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}
		} else if !session.Role.Authorized(required) {
			writeError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithSession(r.Context(), session)))
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingBearer
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errMissingBearer
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errMissingBearer
	}
	return token, nil
}
