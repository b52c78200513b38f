package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alfredjeanlab/folio/internal/model"
	"github.com/alfredjeanlab/folio/internal/store"
)

// documentName is the row key of the portfolio document.
const documentName = "portfolio"

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryGetDocument(ctx context.Context, db executor) (*model.Document, error) {
	row := db.QueryRowContext(ctx, `
		SELECT data FROM documents WHERE name = $1`, documentName)
	return scanDocument(row)
}

// queryLockDocument reads the document and holds a row lock until the
// surrounding transaction ends.
func queryLockDocument(ctx context.Context, db executor) (*model.Document, error) {
	row := db.QueryRowContext(ctx, `
		SELECT data FROM documents WHERE name = $1 FOR UPDATE`, documentName)
	return scanDocument(row)
}

func querySaveDocument(ctx context.Context, db executor, doc *model.Document, now time.Time) error {
	doc.Normalize()
	doc.Touch(now)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO documents (name, data)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET data = $2, updated_at = NOW()`,
		documentName, data,
	)
	return err
}

func queryCreateBackup(ctx context.Context, db executor, name string) (*store.Backup, error) {
	row := db.QueryRowContext(ctx, `
		INSERT INTO backups (name, data)
		SELECT $1, data FROM documents WHERE name = $2
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, created_at = NOW()
		RETURNING name, octet_length(data::text), created_at`,
		name, documentName,
	)
	b, err := scanBackup(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	return b, err
}

func queryListBackups(ctx context.Context, db executor) ([]*store.Backup, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name, octet_length(data::text), created_at
		FROM backups ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBackups(rows)
}

func queryGetBackup(ctx context.Context, db executor, name string) (*model.Document, error) {
	row := db.QueryRowContext(ctx, `
		SELECT data FROM backups WHERE name = $1`, name)
	return scanDocument(row)
}
