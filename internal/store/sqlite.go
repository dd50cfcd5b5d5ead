package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex // serializes writes (SQLite is single-writer)
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates the catalog database at path and runs
// schema migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	// Single connection for writes to avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating sqlite: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS patches (
			id            TEXT PRIMARY KEY,
			path          TEXT NOT NULL UNIQUE,
			tool_version  TEXT NOT NULL,
			patch_name    TEXT NOT NULL,
			patch_version TEXT NOT NULL,
			author        TEXT NOT NULL DEFAULT '',
			mod_time      DATETIME NOT NULL,
			indexed_at    DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_patches_name ON patches(patch_name)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	// UCS columns arrived after the first schema.
	if err := s.addColumnIfNotExists("patches", "ucs_category", "TEXT NOT NULL DEFAULT ''"); err != nil {
		return err
	}
	return s.addColumnIfNotExists("patches", "ucs_sub_category", "TEXT NOT NULL DEFAULT ''")
}

// addColumnIfNotExists adds a column, ignoring SQLite's "duplicate column
// name" error on databases that already have it.
func (s *SQLiteStore) addColumnIfNotExists(table, column, colType string) error {
	_, err := s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, colType))
	if err != nil && !strings.Contains(err.Error(), "duplicate column") {
		return fmt.Errorf("adding %s.%s: %w", table, column, err)
	}
	return nil
}

const patchColumns = `id, path, tool_version, patch_name, patch_version, author,
	ucs_category, ucs_sub_category, mod_time, indexed_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPatch(row scanner) (PatchRecord, error) {
	var r PatchRecord
	err := row.Scan(&r.ID, &r.FilePath, &r.ToolVersion, &r.PatchName, &r.PatchVersion, &r.Author,
		&r.UCSCategory, &r.UCSSubCategory, &r.ModTime, &r.IndexedAt)
	return r, err
}

func (s *SQLiteStore) PatchUpsert(ctx context.Context, rec PatchRecord) (PatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.IndexedAt.IsZero() {
		rec.IndexedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO patches (`+patchColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (path) DO UPDATE SET
			tool_version = excluded.tool_version,
			patch_name = excluded.patch_name,
			patch_version = excluded.patch_version,
			author = excluded.author,
			ucs_category = excluded.ucs_category,
			ucs_sub_category = excluded.ucs_sub_category,
			mod_time = excluded.mod_time,
			indexed_at = excluded.indexed_at`,
		rec.ID, rec.FilePath, rec.ToolVersion, rec.PatchName, rec.PatchVersion, rec.Author,
		rec.UCSCategory, rec.UCSSubCategory, rec.ModTime.UTC(), rec.IndexedAt.UTC(),
	)
	if err != nil {
		return PatchRecord{}, fmt.Errorf("upserting %s: %w", rec.FilePath, err)
	}

	out, err := scanPatch(s.db.QueryRowContext(ctx,
		"SELECT "+patchColumns+" FROM patches WHERE path = ?", rec.FilePath))
	if err != nil {
		return PatchRecord{}, fmt.Errorf("reading back %s: %w", rec.FilePath, err)
	}
	return out, nil
}

func (s *SQLiteStore) PatchGet(ctx context.Context, path string) (*PatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := scanPatch(s.db.QueryRowContext(ctx,
		"SELECT "+patchColumns+" FROM patches WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteStore) PatchList(ctx context.Context) ([]PatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryPatches(ctx, "SELECT "+patchColumns+" FROM patches ORDER BY patch_name, path")
}

func (s *SQLiteStore) PatchSearch(ctx context.Context, text string) ([]PatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	like := "%" + escapeLike(text) + "%"
	return s.queryPatches(ctx,
		`SELECT `+patchColumns+` FROM patches
		 WHERE patch_name LIKE ? ESCAPE '\'
			OR author LIKE ? ESCAPE '\'
			OR ucs_category LIKE ? ESCAPE '\'
			OR ucs_sub_category LIKE ? ESCAPE '\'
		 ORDER BY patch_name, path`,
		like, like, like, like,
	)
}

func (s *SQLiteStore) PatchDelete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM patches WHERE path = ?", path)
	return err
}

func (s *SQLiteStore) queryPatches(ctx context.Context, query string, args ...any) ([]PatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PatchRecord
	for rows.Next() {
		r, err := scanPatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
