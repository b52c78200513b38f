package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps images under a directory served at URLPrefix.
type LocalStore struct {
	root      string
	urlPrefix string
}

// Compile-time check that LocalStore implements Store.
var _ Store = (*LocalStore)(nil)

// NewLocalStore returns a store rooted at dir whose files are served under
// "/assets/".
func NewLocalStore(dir string) (*LocalStore, error) {
	for _, folder := range []string{"profile", "projects", "misc"} {
		if err := os.MkdirAll(filepath.Join(dir, "images", folder), 0o755); err != nil {
			return nil, fmt.Errorf("create image dir: %w", err)
		}
	}
	return &LocalStore{root: dir, urlPrefix: "/assets/"}, nil
}

// Root returns the directory images are written to.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(target)
		return err
	}
	return f.Close()
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *LocalStore) PublicPath(key string) string {
	return s.urlPrefix + key
}

func (s *LocalStore) Key(publicPath string) (string, error) {
	key, ok := strings.CutPrefix(publicPath, s.urlPrefix)
	if !ok {
		// Stored documents sometimes carry the path without the leading slash.
		key, ok = strings.CutPrefix(publicPath, strings.TrimPrefix(s.urlPrefix, "/"))
	}
	if !ok {
		return "", ErrInvalidPath
	}
	return cleanKey(key)
}

// resolve maps a key to a file path and checks it stays inside root.
func (s *LocalStore) resolve(key string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}
	target := filepath.Join(root, filepath.FromSlash(key))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return target, nil
}
