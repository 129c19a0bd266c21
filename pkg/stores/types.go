package stores

import (
	"context"
	"time"

	"github.com/openfroyo/docnav/pkg/content"
	"github.com/openfroyo/docnav/pkg/site"
)

// IndexRun records one content indexing pass.
type IndexRun struct {
	ID             string    `json:"id"`
	ContentRoot    string    `json:"content_root"`
	DocumentCount  int       `json:"document_count"`
	DraftsIncluded bool      `json:"drafts_included"`
	StartedAt      time.Time `json:"started_at"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Store persists the latest document index and the history of index runs.
type Store interface {
	// Init opens the database connection.
	Init(ctx context.Context) error

	// Migrate applies pending schema migrations.
	Migrate(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// ReplaceDocuments atomically replaces the indexed documents and records
	// the run.
	ReplaceDocuments(ctx context.Context, root string, startedAt time.Time, docs []content.Document, draftsIncluded bool) (*IndexRun, error)

	// ListDocuments returns the indexed documents in path order.
	ListDocuments(ctx context.Context) ([]content.Document, error)

	// HasDocument reports whether a canonical path is indexed.
	HasDocument(ctx context.Context, path string) (bool, error)

	// LatestRun returns the most recent index run, or ErrNoIndex.
	LatestRun(ctx context.Context) (*IndexRun, error)

	// ListRuns returns index runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*IndexRun, error)

	// PruneRuns deletes all but the newest keep runs.
	PruneRuns(ctx context.Context, keep int) (int64, error)

	// Snapshot returns the indexed paths as an in-memory document set.
	Snapshot(ctx context.Context) (site.Documents, error)

	// HealthCheck verifies the database connection is healthy.
	HealthCheck(ctx context.Context) error
}
