package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net"
	"net/http"

	"github.com/alfredjeanlab/folio/internal/model"
)

// submitMessageRequest is the body for POST /api/messages, sent as JSON by
// scripts or as form fields by the page's contact form.
type submitMessageRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

// handleSubmitMessage handles POST /api/messages. It is public and rate
// limited per client address. A form post is answered with a redirect back
// to the page's contact section.
func (s *Server) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(r.Context(), clientAddr(r)) {
		writeError(w, http.StatusTooManyRequests, "too many messages, try again later")
		return
	}

	var req submitMessageRequest
	form := isFormPost(r)
	if form {
		if !decodeMessageForm(w, r, &req) {
			return
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := s.submitMessage(r.Context(), model.Message{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
	}); err != nil {
		writeServiceError(w, r, err, "config not found")
		return
	}
	if form {
		http.Redirect(w, r, "/#contact", http.StatusSeeOther)
		return
	}
	writeSuccess(w, "Message sent successfully")
}

func isFormPost(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data"
}

func decodeMessageForm(w http.ResponseWriter, r *http.Request, req *submitMessageRequest) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := r.ParseMultipartForm(maxBodySize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return false
	}
	*req = submitMessageRequest{
		FirstName: r.PostFormValue("firstName"),
		LastName:  r.PostFormValue("lastName"),
		Email:     r.PostFormValue("email"),
		Subject:   r.PostFormValue("subject"),
		Message:   r.PostFormValue("message"),
	}
	return true
}

// handleListMessages handles GET /api/messages.
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "config not found")
		return
	}
	doc.Normalize()
	writeJSON(w, http.StatusOK, doc.Messages)
}

// handleUpdateMessage handles PUT /api/messages/{id}.
func (s *Server) handleUpdateMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var fields json.RawMessage
	if !decodeJSON(w, r, &fields) {
		return
	}

	if _, err := s.updateMessage(r.Context(), id, fields); err != nil {
		writeServiceError(w, r, err, "Message not found")
		return
	}
	writeSuccess(w, "Message updated")
}

// handleDeleteMessage handles DELETE /api/messages/{id}.
func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := s.deleteMessage(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, "config not found")
		return
	}
	writeSuccess(w, "Message deleted")
}

// clientAddr returns the host part of the request's remote address.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
