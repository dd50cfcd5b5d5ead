// Package store persists the local patch catalog. The default implementation
// uses SQLite (pure Go, no CGO).
package store

import (
	"context"
	"time"

	"github.com/codewiresh/gsapi/internal/patch"
)

// PatchRecord is one indexed patch file.
type PatchRecord struct {
	patch.Metadata `yaml:",inline"`

	ID        string    `json:"id" yaml:"id"`
	ModTime   time.Time `json:"mod_time" yaml:"mod_time"`
	IndexedAt time.Time `json:"indexed_at" yaml:"indexed_at"`
}

// Store is the catalog's storage interface. All methods are safe for concurrent use.
type Store interface {
	// PatchUpsert inserts rec or updates the row with the same file path.
	// An empty ID is assigned; an existing row keeps its ID.
	PatchUpsert(ctx context.Context, rec PatchRecord) (PatchRecord, error)
	// PatchGet returns nil, nil when path is not indexed.
	PatchGet(ctx context.Context, path string) (*PatchRecord, error)
	PatchList(ctx context.Context) ([]PatchRecord, error)
	// PatchSearch matches text against name, author and UCS fields.
	PatchSearch(ctx context.Context, text string) ([]PatchRecord, error)
	PatchDelete(ctx context.Context, path string) error

	// Close releases resources (e.g. closes the database).
	Close() error
}
