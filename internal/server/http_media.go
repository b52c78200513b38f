package server

import (
	"errors"
	"net/http"

	"github.com/alfredjeanlab/folio/internal/events"
	"github.com/alfredjeanlab/folio/internal/media"
)

// maxUploadSize bounds multipart upload bodies.
const maxUploadSize = 10 << 20

// handleUpload handles POST /api/upload. The image is the multipart "file"
// part; "type" (form field or query parameter) selects the folder.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.media == nil {
		writeError(w, http.StatusInternalServerError, "media storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	kind := r.FormValue("type")
	if kind == "" {
		kind = "misc"
	}

	img, err := s.media.Save(r.Context(), media.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Kind:        kind,
		Size:        header.Size,
		Body:        file,
	})
	if errors.Is(err, media.ErrUnsupportedType) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	s.publish(r.Context(), events.TopicImageUploaded, events.ImageUploaded{
		Path: img.Path,
		Type: kind,
		Size: img.Size,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"path":     img.Path,
		"filename": img.Filename,
	})
}

// deleteImageRequest is the JSON body for DELETE /api/images.
type deleteImageRequest struct {
	Path string `json:"path"`
}

// handleDeleteImage handles DELETE /api/images.
func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	var req deleteImageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	deleted, err := s.deleteImage(r.Context(), req.Path)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if !deleted {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "File not found"})
		return
	}
	writeSuccess(w, "Image deleted")
}
