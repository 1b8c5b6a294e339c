package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/tibs245/oria-auth/internal/audit"
	"github.com/tibs245/oria-auth/internal/auth"
	"github.com/tibs245/oria-auth/internal/obs"
)

type createCredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type credentialResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPairResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type sessionRecordResponse struct {
	ID               string     `json:"id"`
	CreatedAt        time.Time  `json:"created_at"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	AccessExpiresAt  time.Time  `json:"access_expires_at"`
	RefreshExpiresAt time.Time  `json:"refresh_expires_at"`
}

func (a *API) handleCreateCredentials(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req createCredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	cred, err := a.service.CreateCredentials(r.Context(), req.Username, req.Password, auth.Role(req.Role))
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.credentials.created", map[string]any{
		"username": cred.Username,
		"role":     string(cred.Role),
	})
	writeJSON(w, http.StatusCreated, credentialResponse{
		ID:        cred.ID,
		Username:  cred.Username,
		Role:      string(cred.Role),
		CreatedAt: cred.CreatedAt,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := a.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWrongCredentials), errors.Is(err, auth.ErrMissingCredentials):
			obs.ObserveLogin("rejected")
		default:
			obs.ObserveLogin("error")
		}
		writeAuthError(w, r, err)
		return
	}

	obs.ObserveLogin("ok")
	obs.ObservePairIssued()
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"username": pair.Record.Username,
	})
	writeJSON(w, http.StatusOK, tokenPairResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := a.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			obs.ObserveRefresh("rejected")
		} else {
			obs.ObserveRefresh("error")
		}
		writeAuthError(w, r, err)
		return
	}

	obs.ObserveRefresh("ok")
	obs.ObservePairIssued()
	_ = audit.LogEvent(r.Context(), "auth.refresh", map[string]any{
		"username": pair.Record.Username,
	})
	writeJSON(w, http.StatusOK, tokenPairResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (a *API) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	session, ok := auth.SessionFromContext(r.Context())
	if !ok || session.Anonymous() {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	recs, err := a.service.SessionsForUser(r.Context(), session.Username)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	out := make([]sessionRecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, sessionRecordResponse{
			ID:               rec.ID,
			CreatedAt:        rec.CreatedAt,
			RevokedAt:        rec.RevokedAt,
			AccessExpiresAt:  rec.AccessExpiresAt,
			RefreshExpiresAt: rec.RefreshExpiresAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"username": session.Username,
		"sessions": out,
	})
}
