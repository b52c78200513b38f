package server

import (
	"bytes"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/alfredjeanlab/folio/internal/model"
	"github.com/alfredjeanlab/folio/internal/store"
)

// registerSite mounts the rendered page and static directories.
func (s *Server) registerSite(mux *http.ServeMux) {
	if s.renderer != nil {
		mux.HandleFunc("GET /{$}", s.handleIndex)
		mux.HandleFunc("GET /index.html", s.handleIndex)
	}
	if s.assetsDir != "" {
		mux.Handle("GET /assets/", http.StripPrefix("/assets/", noDirListing(http.FileServer(http.Dir(s.assetsDir)))))
	}
	if s.siteDir != "" {
		for _, dir := range []string{"css", "js"} {
			prefix := "/" + dir + "/"
			fs := http.FileServer(http.Dir(filepath.Join(s.siteDir, dir)))
			mux.Handle("GET "+prefix, http.StripPrefix(prefix, noDirListing(fs)))
		}
	}
}

// handleIndex handles GET /. The page is rendered into a buffer so a
// template failure never produces a half-written 200.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		doc = model.NewDocument(nil)
	} else if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.Page(&buf, doc.Public()); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// noDirListing answers 404 for directory paths instead of an index.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; p == "" || p[len(p)-1] == '/' {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
