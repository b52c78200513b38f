package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirDestination writes snapshots into a local directory.
type DirDestination struct {
	dir string
}

func NewDirDestination(dir string) (*DirDestination, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	return &DirDestination{dir: dir}, nil
}

func (d *DirDestination) Write(ctx context.Context, name string, data []byte) error {
	if name != filepath.Base(name) {
		return fmt.Errorf("invalid backup name %q", name)
	}
	return os.WriteFile(filepath.Join(d.dir, name), data, 0o644)
}

func (d *DirDestination) String() string {
	return d.dir
}
