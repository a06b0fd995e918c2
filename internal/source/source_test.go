package source_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tunesync/internal/config"
	"tunesync/internal/decodecache"
	"tunesync/internal/musicdb"
	"tunesync/internal/services"
	"tunesync/internal/source"
	"tunesync/internal/testsupport"
)

func TestOpenMusicDBUsesDecodeCache(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithLibrary(testsupport.SampleLibrary()),
		testsupport.WithDecodeCache(2),
	)
	ctx := context.Background()

	first, err := source.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if first.CacheHit {
		t.Fatal("expected first open to miss the cache")
	}
	if first.Source != config.SourceMusicDB || first.MusicDB == nil {
		t.Fatalf("unexpected library %+v", first)
	}
	if first.TrackCount() != 3 {
		t.Fatalf("expected 3 tracks, got %d", first.TrackCount())
	}
	if string(first.Decoded[:4]) != "hfma" {
		t.Fatalf("expected decoded buffer to keep the envelope, got %q", first.Decoded[:4])
	}

	entries, err := decodecache.NewFromConfig(cfg, nil).List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Fingerprint != first.Fingerprint {
		t.Fatalf("expected one cache entry for %s, got %+v", first.Fingerprint, entries)
	}
	if entries[0].EnvelopeLength == 0 || entries[0].SourcePath != cfg.Paths.MusicDBPath {
		t.Fatalf("unexpected sidecar %+v", entries[0])
	}

	cfg.Library.Key = "wrong key material"
	second, err := source.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open from cache: %v", err)
	}
	if !second.CacheHit {
		t.Fatal("expected second open to hit the cache")
	}
	if second.Fingerprint != first.Fingerprint {
		t.Fatal("fingerprint changed between opens")
	}
	track, err := second.TrackByID("00000000000000A1")
	if err != nil || track.Name != "Song" {
		t.Fatalf("TrackByID: %+v, %v", track, err)
	}
}

func TestOpenMusicDBLegacyIDs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLibrary(testsupport.SampleLibrary()))
	cfg.Library.LegacyIDs = true

	lib, err := source.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := lib.TrackByID("0000000A1"); err != nil {
		t.Fatalf("expected legacy id lookup to succeed: %v", err)
	}
}

func TestOpenMusicDBKeyOverride(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLibrary(testsupport.SampleLibrary()))
	cfg.Library.Key = "not the key"

	if _, err := source.Open(context.Background(), cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for wrong key, got %v", err)
	}
	lib, err := source.Open(context.Background(), cfg, source.WithKey(testsupport.TestKey))
	if err != nil {
		t.Fatalf("Open with key override: %v", err)
	}
	if lib.TrackCount() != 3 {
		t.Fatalf("expected 3 tracks, got %d", lib.TrackCount())
	}
}

func TestOpenMusicDBErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cfg := testsupport.NewConfig(t)
		if _, err := source.Open(context.Background(), cfg); !errors.Is(err, services.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("bad header", func(t *testing.T) {
		tests := []struct {
			name string
			raw  []byte
			want error
		}{
			{name: "wrong magic", raw: []byte("HFMA0000000000000000000000000000000000000000000000000000"), want: musicdb.ErrBadMagic},
			{name: "short header", raw: []byte("hfma"), want: musicdb.ErrTruncated},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				cfg := testsupport.NewConfig(t)
				cfg.Library.Key = "not the key"
				if err := os.MkdirAll(filepath.Dir(cfg.Paths.MusicDBPath), 0o755); err != nil {
					t.Fatalf("mkdir: %v", err)
				}
				if err := os.WriteFile(cfg.Paths.MusicDBPath, tt.raw, 0o644); err != nil {
					t.Fatalf("write library: %v", err)
				}
				_, err := source.Open(context.Background(), cfg)
				if !errors.Is(err, services.ErrValidation) || !errors.Is(err, tt.want) {
					t.Fatalf("expected validation error wrapping %v, got %v", tt.want, err)
				}
				var svcErr *services.Error
				if !errors.As(err, &svcErr) || svcErr.Op != "parse musicdb header" {
					t.Fatalf("expected header parse failure, got %v", err)
				}
			})
		}
	})

	t.Run("malformed chunks", func(t *testing.T) {
		lib := testsupport.NewLibraryBuilder().Container(1).TrackTable(2).Track(1, 1).Container(2)
		cfg := testsupport.NewConfig(t, testsupport.WithLibrary(lib))
		_, err := source.Open(context.Background(), cfg)
		if !errors.Is(err, services.ErrValidation) || !errors.Is(err, musicdb.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestOpenITunesXML(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Library.Source = config.SourceITunesXML
	tracks, playlists := testsupport.SampleITunesLibrary()
	testsupport.WriteITunesXML(t, cfg.Paths.ITunesXMLPath, tracks, playlists)

	lib, err := source.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if lib.ITunes == nil || lib.MusicDB != nil || lib.Decoded != nil {
		t.Fatalf("unexpected library %+v", lib)
	}
	if lib.Fingerprint == "" || lib.Path != cfg.Paths.ITunesXMLPath {
		t.Fatalf("unexpected provenance %q %q", lib.Fingerprint, lib.Path)
	}
	count := 0
	for _, err := range lib.Playlists() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 playlists, got %d", count)
	}
	trackCount := 0
	for range lib.Tracks() {
		trackCount++
	}
	if trackCount != 3 {
		t.Fatalf("expected 3 tracks, got %d", trackCount)
	}
}

func TestOpenITunesXMLMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Library.Source = config.SourceITunesXML
	cfg.Paths.ITunesXMLPath = filepath.Join(t.TempDir(), "missing.xml")
	if _, err := source.Open(context.Background(), cfg); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
