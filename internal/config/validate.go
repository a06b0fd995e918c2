package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDecodeCache(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLibrary() error {
	switch c.Library.Source {
	case SourceMusicDB:
		if strings.TrimSpace(c.Paths.MusicDBPath) == "" {
			return errors.New("paths.musicdb_path must be set when library.source is musicdb")
		}
	case SourceITunesXML:
		if strings.TrimSpace(c.Paths.ITunesXMLPath) == "" {
			return errors.New("paths.itunes_xml_path must be set when library.source is itunes_xml")
		}
	default:
		return fmt.Errorf("library.source must be %q or %q, got %q", SourceMusicDB, SourceITunesXML, c.Library.Source)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.PlaylistDir) == "" {
		return errors.New("paths.playlist_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateDecodeCache() error {
	if !c.DecodeCache.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return errors.New("paths.cache_dir must be set when decode_cache.enabled is true")
	}
	if c.DecodeCache.MaxEntries <= 0 {
		return errors.New("decode_cache.max_entries must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
