package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/alfredjeanlab/folio/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// handleLogin handles POST /api/auth/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err, "config not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"token":      sess.Token,
		"expires_at": sess.ExpiresAt,
		"message":    "Login successful",
	})
}

// handleLogout handles POST /api/auth/logout.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := s.auth.Logout(r.Context(), token); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeSuccess(w, "Logged out")
}

// handleVerify handles GET /api/auth/verify.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"username": UserFromContext(r.Context()),
		"message":  "Token valid",
	})
}

// handleChangePassword handles POST /api/auth/change-password.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := s.auth.ChangePassword(r.Context(), req.OldPassword, req.NewPassword)
	switch {
	case errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Current password is incorrect")
	case err != nil:
		writeServiceError(w, r, err, "config not found")
	default:
		writeSuccess(w, "Password changed successfully")
	}
}
