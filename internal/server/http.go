package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alfredjeanlab/folio/internal/auth"
	"github.com/alfredjeanlab/folio/internal/model"
	"github.com/alfredjeanlab/folio/internal/store"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 5 << 20

// NewHTTPHandler returns an http.Handler with all routes registered. Routes
// wrapped in requireAuth need a valid Authorization: Bearer <token> header.
func (s *Server) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("PUT /api/config", s.requireAuth(s.handlePutConfig))

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.requireAuth(s.handleLogout))
	mux.HandleFunc("GET /api/auth/verify", s.requireAuth(s.handleVerify))
	mux.HandleFunc("POST /api/auth/change-password", s.requireAuth(s.handleChangePassword))

	mux.HandleFunc("POST /api/messages", s.handleSubmitMessage)
	mux.HandleFunc("GET /api/messages", s.requireAuth(s.handleListMessages))
	mux.HandleFunc("PUT /api/messages/{id}", s.requireAuth(s.handleUpdateMessage))
	mux.HandleFunc("DELETE /api/messages/{id}", s.requireAuth(s.handleDeleteMessage))

	mux.HandleFunc("POST /api/upload", s.requireAuth(s.handleUpload))
	mux.HandleFunc("DELETE /api/images", s.requireAuth(s.handleDeleteImage))

	mux.HandleFunc("POST /api/backup", s.requireAuth(s.handleCreateBackup))
	mux.HandleFunc("GET /api/backups", s.requireAuth(s.handleListBackups))
	mux.HandleFunc("POST /api/backups/{name}/restore", s.requireAuth(s.handleRestoreBackup))

	mux.HandleFunc("POST /api/stats/visit", s.handleVisit)
	mux.HandleFunc("GET /api/events/stream", s.requireAuth(s.handleEventStream))

	s.registerSite(mux)

	return AccessLogMiddleware(mux)
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeSuccess writes the {success, message} body used by mutating endpoints.
func writeSuccess(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": message})
}

// writeServiceError maps a domain error to an HTTP status. Unexpected
// errors are logged and reported as 500 with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var ie inputError
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ie):
		writeError(w, http.StatusBadRequest, ie.Error())
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON decodes a bounded JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// statusRecorder captures the response status for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so SSE keeps streaming.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// AccessLogMiddleware logs the method, path, status and duration of every
// request.
func AccessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
