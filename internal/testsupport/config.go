package testsupport

import (
	"encoding/hex"
	"path/filepath"
	"testing"

	"tunesync/internal/catalog"
	"tunesync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The musicdb key is set to TestKey.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.MusicDBPath = filepath.Join(base, "Library.musicdb")
	cfgVal.Paths.KeyFile = ""
	cfgVal.Paths.ITunesXMLPath = filepath.Join(base, "iTunes Music Library.xml")
	cfgVal.Paths.PlaylistDir = filepath.Join(base, "playlists")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Library.Key = hex.EncodeToString(TestKey)

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return builder.cfg
}

// WithLibrary seals lib with TestKey and points paths.musicdb_path at it.
func WithLibrary(lib *LibraryBuilder) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.MusicDBPath = lib.WriteSealed(b.t, b.baseDir, TestKey)
	}
}

// WithDecodeCache enables the decode cache with the given size.
func WithDecodeCache(maxEntries int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.DecodeCache.Enabled = true
		b.cfg.DecodeCache.MaxEntries = maxEntries
	}
}

// WithExportPlaylists restricts the export selection.
func WithExportPlaylists(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.Playlists = names
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

// MustOpenCatalog opens a catalog.Store for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
