// Package file implements the store.Store interface on the local filesystem:
// one JSON document plus a directory of backup snapshots.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/folio/internal/model"
	"github.com/alfredjeanlab/folio/internal/store"
)

const (
	documentFile = "portfolio_config.json"
	backupDir    = "backups"
)

// FileStore implements store.Store backed by a data directory.
type FileStore struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// Compile-time check that FileStore implements store.Store.
var _ store.Store = (*FileStore)(nil)

// New returns a FileStore rooted at dir, creating the directory layout if
// needed.
func New(dir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, backupDir), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// Path returns the location of the document file.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, documentFile)
}

func (s *FileStore) GetDocument(ctx context.Context) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) SaveDocument(ctx context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(doc)
}

func (s *FileStore) UpdateDocument(ctx context.Context, fn func(doc *model.Document) error) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	if err := s.write(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *FileStore) CreateBackup(ctx context.Context) (*store.Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	now := s.now()
	name := store.BackupName(now)
	if err := writeAtomic(filepath.Join(s.dir, backupDir, name), data); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}
	return &store.Backup{Name: name, Size: int64(len(data)), Created: now}, nil
}

func (s *FileStore) ListBackups(ctx context.Context) ([]*store.Backup, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, backupDir))
	if err != nil {
		return nil, fmt.Errorf("read backups: %w", err)
	}
	var backups []*store.Backup
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat backup %s: %w", e.Name(), err)
		}
		backups = append(backups, &store.Backup{
			Name:    e.Name(),
			Size:    info.Size(),
			Created: info.ModTime(),
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Created.After(backups[j].Created)
	})
	return backups, nil
}

func (s *FileStore) GetBackup(ctx context.Context, name string) (*model.Document, error) {
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".json") {
		return nil, store.ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, backupDir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	return model.DecodeDocument(data)
}

// Close is a no-op; the store holds no open handles.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() (*model.Document, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return model.DecodeDocument(data)
}

func (s *FileStore) write(doc *model.Document) error {
	doc.Normalize()
	doc.Touch(s.now())
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := writeAtomic(s.Path(), data); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// writeAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
