package postgres

import (
	"database/sql"
	"errors"

	"github.com/alfredjeanlab/folio/internal/model"
	"github.com/alfredjeanlab/folio/internal/store"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanDocument scans a single JSONB data column into a model.Document.
func scanDocument(row scannable) (*model.Document, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return model.DecodeDocument(data)
}

// scanBackup scans a backup listing row (name, size, created_at).
func scanBackup(row scannable) (*store.Backup, error) {
	var b store.Backup
	if err := row.Scan(&b.Name, &b.Size, &b.Created); err != nil {
		return nil, err
	}
	return &b, nil
}

// scanBackups scans multiple rows into a slice of store.Backup pointers.
func scanBackups(rows *sql.Rows) ([]*store.Backup, error) {
	var backups []*store.Backup
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		backups = append(backups, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return backups, nil
}
