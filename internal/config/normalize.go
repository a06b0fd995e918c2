package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLibrary()
	c.normalizeExport()
	if c.DecodeCache.MaxEntries <= 0 {
		c.DecodeCache.MaxEntries = defaultCacheMaxEntries
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("TUNESYNC_PLAYLIST_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.PlaylistDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.PlaylistDir) == "" {
		c.Paths.PlaylistDir = defaultPlaylistDir
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}

	fields := []struct {
		key   string
		value *string
	}{
		{"paths.musicdb_path", &c.Paths.MusicDBPath},
		{"paths.key_file", &c.Paths.KeyFile},
		{"paths.itunes_xml_path", &c.Paths.ITunesXMLPath},
		{"paths.playlist_dir", &c.Paths.PlaylistDir},
		{"paths.state_dir", &c.Paths.StateDir},
		{"paths.cache_dir", &c.Paths.CacheDir},
		{"paths.log_dir", &c.Paths.LogDir},
	}
	for _, f := range fields {
		expanded, err := expandPath(strings.TrimSpace(*f.value))
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		*f.value = expanded
	}
	return nil
}

func (c *Config) normalizeLibrary() {
	c.Library.Source = strings.ToLower(strings.TrimSpace(c.Library.Source))
	if c.Library.Source == "" {
		c.Library.Source = defaultSource
	}
	if value, ok := os.LookupEnv("TUNESYNC_MUSICDB_KEY"); ok && strings.TrimSpace(value) != "" {
		c.Library.Key = strings.TrimSpace(value)
	}
	c.Library.Key = strings.TrimSpace(c.Library.Key)
}

func (c *Config) normalizeExport() {
	if len(c.Export.Playlists) > 0 {
		names := make([]string, 0, len(c.Export.Playlists))
		for _, name := range c.Export.Playlists {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		c.Export.Playlists = names
	}
	c.Export.Generator = strings.TrimSpace(c.Export.Generator)
	if c.Export.Generator == "" {
		c.Export.Generator = defaultGenerator
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
