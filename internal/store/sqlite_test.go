package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/codewiresh/gsapi/internal/patch"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func record(path, name, author, category string) PatchRecord {
	return PatchRecord{
		Metadata: patch.Metadata{
			FilePath:     path,
			ToolVersion:  "2024.1",
			PatchName:    name,
			PatchVersion: "1",
			Author:       author,
			UCSCategory:  category,
		},
		ModTime: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestPatchUpsertGetDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Get non-existent path returns nil.
	got, err := s.PatchGet(ctx, "/p/a.gspatch")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}

	first, err := s.PatchUpsert(ctx, record("/p/a.gspatch", "Breeze", "Ann", "WIND"))
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == "" {
		t.Fatal("expected an ID to be assigned")
	}
	if first.IndexedAt.IsZero() {
		t.Fatal("expected IndexedAt to be set")
	}

	got, err = s.PatchGet(ctx, "/p/a.gspatch")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.PatchName != "Breeze" || got.UCSCategory != "WIND" {
		t.Fatalf("unexpected record %+v", got)
	}
	if !got.ModTime.Equal(first.ModTime) {
		t.Fatalf("ModTime = %v, want %v", got.ModTime, first.ModTime)
	}

	// Re-indexing the same path keeps the ID.
	second, err := s.PatchUpsert(ctx, record("/p/a.gspatch", "Breeze v2", "Ann", "WIND"))
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Fatalf("ID changed on upsert: %s -> %s", first.ID, second.ID)
	}
	if second.PatchName != "Breeze v2" {
		t.Fatalf("PatchName = %q", second.PatchName)
	}

	if err := s.PatchDelete(ctx, "/p/a.gspatch"); err != nil {
		t.Fatal(err)
	}
	got, err = s.PatchGet(ctx, "/p/a.gspatch")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("expected nil after delete")
	}
}

func TestPatchListAndSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, r := range []PatchRecord{
		record("/p/c.gspatch", "Thunder", "Ben", "WEATHER"),
		record("/p/a.gspatch", "Breeze", "Ann", "WIND"),
		record("/p/b.gspatch", "Gust_50%", "Ann", "WIND"),
	} {
		if _, err := s.PatchUpsert(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.PatchList(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].PatchName != "Breeze" || all[2].PatchName != "Thunder" {
		t.Fatalf("unexpected list order: %+v", all)
	}

	tests := []struct {
		text string
		want int
	}{
		{"wind", 2}, // ucs category, case-insensitive
		{"ann", 2},  // author
		{"thun", 1}, // name
		{"50%", 1},  // literal percent
		{"_", 1},    // literal underscore
		{"nothing", 0},
	}
	for _, tt := range tests {
		hits, err := s.PatchSearch(ctx, tt.text)
		if err != nil {
			t.Fatalf("PatchSearch(%q): %v", tt.text, err)
		}
		if len(hits) != tt.want {
			t.Errorf("PatchSearch(%q) = %d hits, want %d", tt.text, len(hits), tt.want)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.PatchUpsert(context.Background(), record("/p/a.gspatch", "A", "x", "")); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Migrations must be idempotent.
	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	all, err := s.PatchList(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 record after reopen, got %d", len(all))
	}
}
