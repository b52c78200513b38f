package server

import (
	"net/http"

	"github.com/alfredjeanlab/folio/internal/model"
)

// handleGetConfig handles GET /api/config.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	doc, err := s.publicConfig(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "config not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handlePutConfig handles PUT /api/config.
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var doc model.Document
	if !decodeJSON(w, r, &doc) {
		return
	}
	doc.Normalize()

	if _, err := s.replaceConfig(r.Context(), &doc, "http"); err != nil {
		writeServiceError(w, r, err, "config not found")
		return
	}
	writeSuccess(w, "Configuration updated")
}

// handleCreateBackup handles POST /api/backup.
func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	b, err := s.createBackup(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "config not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "file": b.Name})
}

// handleListBackups handles GET /api/backups.
func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := s.store.ListBackups(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if backups == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, backups)
}

// handleRestoreBackup handles POST /api/backups/{name}/restore.
func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	saved, err := s.restoreBackup(r.Context(), name)
	if err != nil {
		writeServiceError(w, r, err, "Backup not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"restored":     name,
		"last_updated": saved.Meta.LastUpdated,
	})
}

// handleVisit handles POST /api/stats/visit.
func (s *Server) handleVisit(w http.ResponseWriter, r *http.Request) {
	total, err := s.recordVisit(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "config not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "total_visitors": total})
}
