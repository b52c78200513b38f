// Package media stores uploaded portfolio images on the local filesystem or
// in MinIO/S3 compatible object storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when deleting an image that does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrInvalidPath is returned for a path outside the image root.
	ErrInvalidPath = errors.New("invalid image path")
	// ErrUnsupportedType is returned for uploads that are not allowed images.
	ErrUnsupportedType = errors.New("unsupported file type")
)

// AllowedTypes maps accepted upload content types to their canonical
// extension.
var AllowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Store persists image bytes under a slash-separated key such as
// "images/projects/1700000000_ab12cd34.png".
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// PublicPath is the path or URL clients use to fetch key.
	PublicPath(key string) string
	// Key resolves a public path back to its key.
	Key(publicPath string) (string, error)
}

// Upload describes an image to be stored.
type Upload struct {
	Filename    string
	ContentType string
	Kind        string // "profile", "project", anything else is misc
	Size        int64
	Body        io.Reader
}

// Image is a stored upload.
type Image struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// Folder returns the image folder for an upload kind.
func Folder(kind string) string {
	switch kind {
	case "profile":
		return "profile"
	case "project":
		return "projects"
	}
	return "misc"
}

// Library validates uploads and names them before handing them to a Store.
type Library struct {
	store Store
	now   func() time.Time
}

func NewLibrary(s Store) *Library {
	return &Library{store: s, now: time.Now}
}

// Save validates and stores an upload, returning its public path.
func (l *Library) Save(ctx context.Context, u Upload) (*Image, error) {
	if _, ok := AllowedTypes[u.ContentType]; !ok {
		return nil, fmt.Errorf("%w: %q (allowed: jpeg, png, gif, webp)", ErrUnsupportedType, u.ContentType)
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(u.Filename)), ".")
	if ext == "" {
		return nil, fmt.Errorf("%w: file must have an extension", ErrUnsupportedType)
	}

	name := fmt.Sprintf("%d_%s.%s", l.now().Unix(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8], ext)
	key := path.Join("images", Folder(u.Kind), name)
	if err := l.store.Put(ctx, key, u.Body, u.Size, u.ContentType); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}
	return &Image{Path: l.store.PublicPath(key), Filename: name, Size: u.Size}, nil
}

// Delete removes the image at a public path previously returned by Save.
func (l *Library) Delete(ctx context.Context, publicPath string) error {
	key, err := l.store.Key(publicPath)
	if err != nil {
		return err
	}
	return l.store.Delete(ctx, key)
}

// cleanKey validates a slash-separated key below "images/".
func cleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(key)
	if cleaned != key || !strings.HasPrefix(cleaned, "images/") {
		return "", ErrInvalidPath
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." || part == "." {
			return "", ErrInvalidPath
		}
	}
	return cleaned, nil
}
