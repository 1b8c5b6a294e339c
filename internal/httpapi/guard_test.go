package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tibs245/oria-auth/internal/auth"
)

func newTestAPI(t *testing.T) (*API, *auth.Service) {
	t.Helper()
	keys, err := auth.NewKeyPair()
	if err != nil {
		t.Fatalf("generate keys: %v", err)
	}
	service := auth.NewService(
		auth.NewMemoryCredentialStore(),
		auth.NewMemoryTokenStore(),
		auth.NewCodec(keys),
	)
	return New(service, ReadyProbe{}, "test"), service
}

func accessTokenFor(t *testing.T, service *auth.Service, username string, role auth.Role) string {
	t.Helper()
	if _, err := service.CreateCredentials(context.Background(), username, "hunter2secret", role); err != nil {
		t.Fatalf("create credentials: %v", err)
	}
	pair, err := service.Login(context.Background(), username, "hunter2secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return pair.AccessToken
}

func guardProbe(a *API, required auth.Privilege, captured *auth.Session) http.HandlerFunc {
	return a.guard(required, func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			if s, ok := auth.SessionFromContext(r.Context()); ok {
				*captured = s
			}
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestGuardRejectsMissingTokenOnAuthenticatedEndpoint(t *testing.T) {
	a, _ := newTestAPI(t)
	handler := guardProbe(a, auth.PrivilegeAuthenticatedOnly, nil)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/protected", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestGuardAllowsAnonymousOnPublicEndpoints(t *testing.T) {
	a, _ := newTestAPI(t)

	for _, required := range []auth.Privilege{auth.PrivilegeAnonymousOnly, auth.PrivilegeAllow} {
		var session auth.Session
		handler := guardProbe(a, required, &session)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/public", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", required, rr.Code)
		}
		if session.Username != auth.AnonymousUsername || session.Role != auth.RoleNone {
			t.Fatalf("%s: expected anonymous session, got %+v", required, session)
		}
	}
}

func TestGuardRejectsAuthenticatedCallerOnAnonymousOnly(t *testing.T) {
	a, service := newTestAPI(t)
	token := accessTokenFor(t, service, "alice", auth.RoleUser)
	handler := guardProbe(a, auth.PrivilegeAnonymousOnly, nil)

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set(authHeader, bearer+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestGuardTreatsBrokenTokenAsAnonymousOnAnonymousOnly(t *testing.T) {
	a, _ := newTestAPI(t)
	var session auth.Session
	handler := guardProbe(a, auth.PrivilegeAnonymousOnly, &session)

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set(authHeader, bearer+"garbage")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !session.Anonymous() {
		t.Fatalf("expected anonymous session, got %+v", session)
	}
}

func TestGuardRejectsBrokenTokenElsewhere(t *testing.T) {
	a, _ := newTestAPI(t)

	for _, required := range []auth.Privilege{auth.PrivilegeAllow, auth.PrivilegeAuthenticatedOnly, auth.PrivilegeAdminOrAbove} {
		handler := guardProbe(a, required, nil)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(authHeader, bearer+"garbage")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", required, rr.Code)
		}
	}
}

func TestGuardEnforcesRoleHierarchy(t *testing.T) {
	a, service := newTestAPI(t)
	moderator := accessTokenFor(t, service, "mod", auth.RoleModerator)

	cases := map[auth.Privilege]int{
		auth.PrivilegeModeratorOrAbove:  http.StatusOK,
		auth.PrivilegeAdminOrAbove:      http.StatusUnauthorized,
		auth.PrivilegeSuperAdminOnly:    http.StatusUnauthorized,
		auth.PrivilegeAuthenticatedOnly: http.StatusOK,
	}
	for required, want := range cases {
		var session auth.Session
		handler := guardProbe(a, required, &session)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(authHeader, bearer+moderator)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != want {
			t.Fatalf("%s: expected %d, got %d", required, want, rr.Code)
		}
		if want == http.StatusOK && session.Username != "mod" {
			t.Fatalf("%s: session not attached, got %+v", required, session)
		}
	}
}

func TestGuardDenyRejectsEveryone(t *testing.T) {
	a, service := newTestAPI(t)
	token := accessTokenFor(t, service, "root", auth.RoleSuperAdmin)
	handler := guardProbe(a, auth.PrivilegeDeny, nil)

	req := httptest.NewRequest(http.MethodGet, "/sealed", nil)
	req.Header.Set(authHeader, bearer+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestExtractBearerToken(t *testing.T) {
	if _, err := extractBearerToken(""); err == nil {
		t.Fatalf("expected error for empty header")
	}
	if _, err := extractBearerToken("Basic abc"); err == nil {
		t.Fatalf("expected error for wrong scheme")
	}
	if _, err := extractBearerToken("Bearer "); err == nil {
		t.Fatalf("expected error for empty token")
	}
	token, err := extractBearerToken("bearer abc.def.ghi")
	if err != nil {
		t.Fatalf("case-insensitive scheme: %v", err)
	}
	if token != "abc.def.ghi" {
		t.Fatalf("unexpected token %q", token)
	}
}
