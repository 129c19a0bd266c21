package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"

	"github.com/openfroyo/docnav/pkg/content"
	"github.com/openfroyo/docnav/pkg/site"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNoIndex is returned when no index run has been recorded yet.
var ErrNoIndex = errors.New("no index run recorded")

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db          *sql.DB
	path        string
	busyTimeout time.Duration
}

var _ Store = (*SQLiteStore)(nil)

// Config holds SQLite store configuration.
type Config struct {
	// Path is the database file, or ":memory:".
	Path string

	// BusyTimeout is how long a writer waits for a lock. Defaults to 5s.
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	return &SQLiteStore{
		path:        cfg.Path,
		busyTimeout: cfg.BusyTimeout,
	}, nil
}

// Init opens the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf(
		"%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_txlock=immediate&_time_format=sqlite",
		s.path, s.busyTimeout.Milliseconds(),
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers and keeps ":memory:" databases
	// from splitting across pooled connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	// m.Close would also close s.db, so only the source is released.
	defer sourceDriver.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// SchemaVersion returns the applied migration version.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)
	err := s.db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty, nil
}

// ReplaceDocuments replaces the indexed documents with docs and records the
// run in one transaction.
func (s *SQLiteStore) ReplaceDocuments(ctx context.Context, root string, startedAt time.Time, docs []content.Document, draftsIncluded bool) (*IndexRun, error) {
	run := &IndexRun{
		ID:             uuid.New().String(),
		ContentRoot:    root,
		DocumentCount:  len(docs),
		DraftsIncluded: draftsIncluded,
		StartedAt:      startedAt.UTC(),
		CompletedAt:    time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO index_runs (id, content_root, document_count, drafts_included, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.ContentRoot, run.DocumentCount, run.DraftsIncluded, run.StartedAt, run.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create index run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return nil, fmt.Errorf("failed to clear documents: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (path, source_path, title, title_source, description, draft, size, mod_time, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare document insert: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		_, err := stmt.ExecContext(ctx,
			doc.Path,
			doc.SourcePath,
			doc.Title,
			doc.TitleSource,
			doc.Description,
			doc.Draft,
			doc.Size,
			doc.ModTime.UTC(),
			run.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert document %s: %w", doc.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit index run: %w", err)
	}

	return run, nil
}

// ListDocuments returns the indexed documents in path order.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]content.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, source_path, title, title_source, description, draft, size, mod_time
		FROM documents
		ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []content.Document
	for rows.Next() {
		var doc content.Document
		err := rows.Scan(
			&doc.Path,
			&doc.SourcePath,
			&doc.Title,
			&doc.TitleSource,
			&doc.Description,
			&doc.Draft,
			&doc.Size,
			&doc.ModTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, nil
}

// HasDocument reports whether a canonical path is indexed.
func (s *SQLiteStore) HasDocument(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM documents WHERE path = ?)`, path).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check document: %w", err)
	}
	return exists, nil
}

// LatestRun returns the most recent index run.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*IndexRun, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoIndex
	}
	return runs[0], nil
}

// ListRuns returns up to limit index runs, newest first. A limit of zero or
// less returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*IndexRun, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content_root, document_count, drafts_included, started_at, completed_at
		FROM index_runs
		ORDER BY completed_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list index runs: %w", err)
	}
	defer rows.Close()

	var runs []*IndexRun
	for rows.Next() {
		run := &IndexRun{}
		err := rows.Scan(
			&run.ID,
			&run.ContentRoot,
			&run.DocumentCount,
			&run.DraftsIncluded,
			&run.StartedAt,
			&run.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan index run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating index runs: %w", err)
	}

	return runs, nil
}

// PruneRuns deletes all but the newest keep runs. The run that owns the
// current documents is always among the newest, so keep must be at least one.
func (s *SQLiteStore) PruneRuns(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		return 0, fmt.Errorf("keep must be at least 1, got %d", keep)
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM index_runs
		WHERE id NOT IN (
			SELECT id FROM index_runs
			ORDER BY completed_at DESC, rowid DESC
			LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune index runs: %w", err)
	}

	return result.RowsAffected()
}

// Snapshot returns the indexed paths as a document set.
func (s *SQLiteStore) Snapshot(ctx context.Context) (site.Documents, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("failed to read document paths: %w", err)
	}
	defer rows.Close()

	docs := site.NewDocuments()
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan document path: %w", err)
		}
		docs.Add(p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document paths: %w", err)
	}

	return docs, nil
}

// HealthCheck verifies the database connection is healthy.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}
