package store

import (
	"context"
	"errors"
	"time"

	"github.com/alfredjeanlab/folio/internal/model"
)

// ErrNotFound is returned when no document or backup exists under the
// requested name.
var ErrNotFound = errors.New("not found")

// Backup describes a stored snapshot of the document.
type Backup struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	Created time.Time `json:"created"`
}

// Store defines the persistence interface for the portfolio document.
type Store interface {
	// GetDocument returns the current document, or ErrNotFound before the
	// first save.
	GetDocument(ctx context.Context) (*model.Document, error)

	// SaveDocument replaces the document. Meta is stamped on the way in.
	SaveDocument(ctx context.Context, doc *model.Document) error

	// UpdateDocument loads the document, applies fn and saves the result
	// atomically with respect to other UpdateDocument calls. If fn returns
	// an error nothing is written.
	UpdateDocument(ctx context.Context, fn func(doc *model.Document) error) (*model.Document, error)

	// Backups
	CreateBackup(ctx context.Context) (*Backup, error)
	ListBackups(ctx context.Context) ([]*Backup, error) // newest first
	GetBackup(ctx context.Context, name string) (*model.Document, error)

	// Lifecycle
	Close() error
}

// BackupName returns the snapshot name for a backup taken at t.
func BackupName(t time.Time) string {
	return "backup_" + t.UTC().Format("20060102_150405") + ".json"
}

// EnsureDocument saves seed() as the document if none exists yet.
func EnsureDocument(ctx context.Context, s Store, seed func() *model.Document) error {
	_, err := s.GetDocument(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.SaveDocument(ctx, seed())
}
