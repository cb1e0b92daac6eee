package httpapi

import (
	"errors"
	"net/http"
	"time"

	"itsolve.org/internal/identity"
	"itsolve.org/internal/obs"
	"itsolve.org/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      identity.User `json:"user"`
}

// handleLogin exchanges credentials for a signed session token.
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
	if req.Email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := a.directory.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		// Wrong email and wrong password are indistinguishable to the caller.
		if errors.Is(err, identity.ErrNotFound) {
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	token, expiresAt, err := session.GenerateToken(user)
	if err != nil {
		obs.LogEvent("token_issue_failed", map[string]any{"error": err.Error()})
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	user.PasswordHash = ""
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}
