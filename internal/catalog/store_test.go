package catalog_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"tunesync/internal/catalog"
	"tunesync/internal/testsupport"
)

func TestRecordAndListExports(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	if store.Path() != filepath.Join(cfg.Paths.StateDir, "catalog.db") {
		t.Fatalf("unexpected catalog path %q", store.Path())
	}

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := catalog.Export{
		RunID:       "run-1",
		Source:      "musicdb",
		LibraryPath: "/music/Library.musicdb",
		Fingerprint: "abc123",
		StartedAt:   base,
		FinishedAt:  base.Add(2 * time.Second),
		Written:     2,
		Playlists: []catalog.ExportedPlaylist{
			{Name: "Road Trip", TrackCount: 2, DurationMS: 420000, Path: "/out/Road Trip.zpl"},
			{Name: "Focus", TrackCount: 1, DurationMS: 1000, Path: "/out/Focus.zpl"},
		},
	}
	second := catalog.Export{
		RunID:      "run-2",
		Source:     "itunes_xml",
		StartedAt:  base.Add(time.Hour + 500*time.Millisecond),
		FinishedAt: base.Add(time.Hour + 750*time.Millisecond),
		Skipped:    1,
		Playlists: []catalog.ExportedPlaylist{
			{Name: "Focus", TrackCount: 1, DurationMS: 1000, Path: "/out/Focus.zpl", Skipped: true},
		},
	}
	for _, export := range []catalog.Export{first, second} {
		if err := store.RecordExport(ctx, export); err != nil {
			t.Fatalf("RecordExport(%s): %v", export.RunID, err)
		}
	}

	exports, err := store.ListExports(ctx, 0)
	if err != nil {
		t.Fatalf("ListExports: %v", err)
	}
	if len(exports) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(exports))
	}
	if exports[0].RunID != "run-2" || exports[1].RunID != "run-1" {
		t.Fatalf("expected newest first, got %s, %s", exports[0].RunID, exports[1].RunID)
	}
	if exports[1].Fingerprint != "abc123" || exports[1].LibraryPath != "/music/Library.musicdb" {
		t.Fatalf("unexpected stored export: %+v", exports[1])
	}
	if !exports[1].StartedAt.Equal(base) {
		t.Fatalf("started_at round trip: got %v want %v", exports[1].StartedAt, base)
	}
	if got := exports[0].Duration(); got != 250*time.Millisecond {
		t.Fatalf("unexpected duration %v", got)
	}
	if exports[0].LibraryPath != "" {
		t.Fatalf("expected empty library path, got %q", exports[0].LibraryPath)
	}

	limited, err := store.ListExports(ctx, 1)
	if err != nil {
		t.Fatalf("ListExports(1): %v", err)
	}
	if len(limited) != 1 || limited[0].RunID != "run-2" {
		t.Fatalf("unexpected limited list: %+v", limited)
	}

	playlists, err := store.ExportedPlaylists(ctx, "run-1")
	if err != nil {
		t.Fatalf("ExportedPlaylists: %v", err)
	}
	if len(playlists) != 2 || playlists[0].Name != "Road Trip" || playlists[1].Name != "Focus" {
		t.Fatalf("unexpected playlists: %+v", playlists)
	}
	if playlists[0].DurationMS != 420000 || playlists[0].TrackCount != 2 {
		t.Fatalf("unexpected playlist row: %+v", playlists[0])
	}

	got, err := store.GetExport(ctx, "run-2")
	if err != nil {
		t.Fatalf("GetExport: %v", err)
	}
	if got == nil || len(got.Playlists) != 1 || !got.Playlists[0].Skipped {
		t.Fatalf("unexpected export: %+v", got)
	}
	missing, err := store.GetExport(ctx, "run-404")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown run, got %+v, %v", missing, err)
	}
}

func TestRecordExportRejectsIncompleteRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	if err := store.RecordExport(ctx, catalog.Export{Source: "musicdb"}); !errors.Is(err, catalog.ErrInvalidExport) {
		t.Fatalf("expected ErrInvalidExport without run id, got %v", err)
	}
	if err := store.RecordExport(ctx, catalog.Export{RunID: "run"}); !errors.Is(err, catalog.ErrInvalidExport) {
		t.Fatalf("expected ErrInvalidExport without source, got %v", err)
	}

	export := catalog.Export{RunID: "dup", Source: "musicdb"}
	if err := store.RecordExport(ctx, export); err != nil {
		t.Fatalf("RecordExport: %v", err)
	}
	if err := store.RecordExport(ctx, export); err == nil {
		t.Fatal("expected duplicate run id to fail")
	}
}

func TestClearCascadesToPlaylists(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	export := catalog.Export{
		RunID:     "run",
		Source:    "musicdb",
		Playlists: []catalog.ExportedPlaylist{{Name: "Focus", TrackCount: 1}},
	}
	if err := store.RecordExport(ctx, export); err != nil {
		t.Fatalf("RecordExport: %v", err)
	}
	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed run, got %d", removed)
	}
	playlists, err := store.ExportedPlaylists(ctx, "run")
	if err != nil {
		t.Fatalf("ExportedPlaylists: %v", err)
	}
	if len(playlists) != 0 {
		t.Fatalf("expected cascade delete, got %+v", playlists)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", cfg.CatalogPath())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := catalog.Open(cfg); !errors.Is(err, catalog.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.RecordExport(context.Background(), catalog.Export{RunID: "kept", Source: "musicdb"}); err != nil {
		t.Fatalf("RecordExport: %v", err)
	}
	store.Close()

	reopened := testsupport.MustOpenCatalog(t, cfg)
	exports, err := reopened.ListExports(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListExports: %v", err)
	}
	if len(exports) != 1 || exports[0].RunID != "kept" {
		t.Fatalf("unexpected exports after reopen: %+v", exports)
	}
}
