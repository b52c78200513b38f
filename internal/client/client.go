// Package client talks to the folio backend over its HTTP/JSON API or the
// gRPC ConfigService.
package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alfredjeanlab/folio/internal/model"
)

// ErrNoToken is returned by operations that need a bearer token when the
// client has none.
var ErrNoToken = errors.New("not logged in: run 'folio login' first")

// Remote is the document API shared by both transports.
type Remote interface {
	FetchConfig(ctx context.Context) (*model.Document, error)
	SaveConfig(ctx context.Context, doc *model.Document) error
	DeleteImage(ctx context.Context, path string) (bool, error)
	CreateBackup(ctx context.Context) (string, error)
	Close() error
}

var (
	_ Remote = (*HTTPClient)(nil)
	_ Remote = (*GRPCClient)(nil)
)

// Image is the result of an upload.
type Image struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
}

// Backup describes a stored snapshot.
type Backup struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	Created time.Time `json:"created"`
}

// MessageRequest is a contact form submission.
type MessageRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

// Health is the backend health report.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// Login is a successful login response.
type Login struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// loadFallback reads a static JSON document used when the backend is
// unreachable.
func loadFallback(path string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fallback config: %w", err)
	}
	return model.DecodeDocument(data)
}
