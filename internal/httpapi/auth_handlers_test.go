package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(authHeader, bearer+token)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	decoded := map[string]any{}
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, path, rr.Body.String(), err)
		}
	}
	return rr, decoded
}

func TestAuthFlowEndToEnd(t *testing.T) {
	a, _ := newTestAPI(t)
	handler := a.Handler()

	// Register.
	rr, body := doJSON(t, handler, http.MethodPost, "/v1/auth/credentials", "", map[string]any{
		"username": "alice",
		"password": "hunter2secret",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %v", rr.Code, body)
	}
	if body["username"] != "alice" || body["role"] != "User" {
		t.Fatalf("register: unexpected body %v", body)
	}

	// Duplicate username.
	rr, _ = doJSON(t, handler, http.MethodPost, "/v1/auth/credentials", "", map[string]any{
		"username": "alice",
		"password": "otherpassword",
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", rr.Code)
	}

	// Wrong password.
	rr, _ = doJSON(t, handler, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"username": "alice",
		"password": "wrongpassword",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", rr.Code)
	}

	// Login.
	rr, body = doJSON(t, handler, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"username": "alice",
		"password": "hunter2secret",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %v", rr.Code, body)
	}
	accessToken, _ := body["token"].(string)
	refreshToken, _ := body["refresh_token"].(string)
	if accessToken == "" || refreshToken == "" {
		t.Fatalf("login: missing tokens in %v", body)
	}

	// Session list needs the access token.
	rr, _ = doJSON(t, handler, http.MethodGet, "/v1/auth/sessions", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("sessions without token: expected 401, got %d", rr.Code)
	}
	rr, body = doJSON(t, handler, http.MethodGet, "/v1/auth/sessions", accessToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("sessions: expected 200, got %d: %v", rr.Code, body)
	}
	sessions, _ := body["sessions"].([]any)
	if len(sessions) != 1 {
		t.Fatalf("sessions: expected 1 record, got %v", body)
	}

	// Login while already authenticated is rejected.
	rr, _ = doJSON(t, handler, http.MethodPost, "/v1/auth/login", accessToken, map[string]any{
		"username": "alice",
		"password": "hunter2secret",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("login with session: expected 401, got %d", rr.Code)
	}

	// Rotate.
	rr, body = doJSON(t, handler, http.MethodPost, "/v1/auth/refresh", "", map[string]any{
		"refresh_token": refreshToken,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d: %v", rr.Code, body)
	}
	newAccess, _ := body["token"].(string)
	if newAccess == "" || newAccess == accessToken {
		t.Fatalf("refresh: expected a fresh access token")
	}

	// The consumed refresh token is dead.
	rr, _ = doJSON(t, handler, http.MethodPost, "/v1/auth/refresh", "", map[string]any{
		"refresh_token": refreshToken,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("refresh replay: expected 400, got %d", rr.Code)
	}

	// The rotated access token works; there are now two records.
	rr, body = doJSON(t, handler, http.MethodGet, "/v1/auth/sessions", newAccess, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("sessions after rotation: expected 200, got %d", rr.Code)
	}
	sessions, _ = body["sessions"].([]any)
	if len(sessions) != 2 {
		t.Fatalf("sessions after rotation: expected 2 records, got %d", len(sessions))
	}
}

func TestCreateCredentialsValidationErrors(t *testing.T) {
	a, _ := newTestAPI(t)
	handler := a.Handler()

	rr, _ := doJSON(t, handler, http.MethodPost, "/v1/auth/credentials", "", map[string]any{
		"username": "",
		"password": "hunter2secret",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty username: expected 400, got %d", rr.Code)
	}

	rr, _ = doJSON(t, handler, http.MethodPost, "/v1/auth/credentials", "", map[string]any{
		"username": "alice",
		"password": "hunter2secret",
		"unknown":  true,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: expected 400, got %d", rr.Code)
	}

	rr, _ = doJSON(t, handler, http.MethodGet, "/v1/auth/credentials", "", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("wrong method: expected 405, got %d", rr.Code)
	}
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	a, _ := newTestAPI(t)
	handler := a.Handler()

	rr, body := doJSON(t, handler, http.MethodPost, "/v1/auth/refresh", "", map[string]any{
		"refresh_token": "garbage",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if msg, _ := body["error"].(string); msg == "" {
		t.Fatalf("expected error message in %v", body)
	}
}

func TestHealthAndInfoEndpoints(t *testing.T) {
	a, _ := newTestAPI(t)
	handler := a.Handler()

	rr, body := doJSON(t, handler, http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthz: got %d %v", rr.Code, body)
	}

	rr, body = doJSON(t, handler, http.MethodGet, "/readyz", "", nil)
	if rr.Code != http.StatusOK || body["status"] != "ready" {
		t.Fatalf("readyz: got %d %v", rr.Code, body)
	}

	rr, body = doJSON(t, handler, http.MethodGet, "/v1/info", "", nil)
	if rr.Code != http.StatusOK || body["name"] != "oria-auth" {
		t.Fatalf("info: got %d %v", rr.Code, body)
	}
}
