// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/folio/internal/model"
	"github.com/alfredjeanlab/folio/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newWithDB(db), nil
}

func newWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) GetDocument(ctx context.Context) (*model.Document, error) {
	return queryGetDocument(ctx, s.db)
}

func (s *PostgresStore) SaveDocument(ctx context.Context, doc *model.Document) error {
	return querySaveDocument(ctx, s.db, doc, s.now())
}

// UpdateDocument locks the document row for the duration of fn.
func (s *PostgresStore) UpdateDocument(ctx context.Context, fn func(doc *model.Document) error) (*model.Document, error) {
	var doc *model.Document
	err := s.runInTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		doc, err = queryLockDocument(ctx, tx)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		return querySaveDocument(ctx, tx, doc, s.now())
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *PostgresStore) CreateBackup(ctx context.Context) (*store.Backup, error) {
	return queryCreateBackup(ctx, s.db, store.BackupName(s.now()))
}

func (s *PostgresStore) ListBackups(ctx context.Context) ([]*store.Backup, error) {
	return queryListBackups(ctx, s.db)
}

func (s *PostgresStore) GetBackup(ctx context.Context, name string) (*model.Document, error) {
	return queryGetBackup(ctx, s.db, name)
}

// runInTransaction begins a database transaction, calls fn, and commits on
// success or rolls back on error.
func (s *PostgresStore) runInTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
