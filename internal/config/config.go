package config

import (
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"tunesync/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Library sources.
const (
	SourceMusicDB   = "musicdb"
	SourceITunesXML = "itunes_xml"
)

// Paths contains file and directory locations.
type Paths struct {
	MusicDBPath   string `toml:"musicdb_path"`
	KeyFile       string `toml:"key_file"`
	ITunesXMLPath string `toml:"itunes_xml_path"`
	PlaylistDir   string `toml:"playlist_dir"`
	StateDir      string `toml:"state_dir"`
	CacheDir      string `toml:"cache_dir"`
	LogDir        string `toml:"log_dir"`
}

// Library selects where tracks and playlists are read from.
type Library struct {
	Source string `toml:"source"`
	// Key is the musicdb AES key as hex or raw text. Takes precedence over
	// paths.key_file.
	Key          string `toml:"key"`
	LegacyIDs    bool   `toml:"legacy_ids"`
	RequireFiles bool   `toml:"require_files"`
}

// Export contains playlist export settings.
type Export struct {
	Playlists []string `toml:"playlists"`
	Overwrite bool     `toml:"overwrite"`
	Generator string   `toml:"generator"`
}

// DecodeCache contains configuration for the decoded library cache.
type DecodeCache struct {
	Enabled    bool `toml:"enabled"`
	MaxEntries int  `toml:"max_entries"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tunesync.
//
// Configuration sections by subsystem:
//   - Paths: library inputs, playlist output, state and cache directories
//   - Library: source selection, key material, track id rendering
//   - Export: which playlists to write and how
//   - DecodeCache: reuse of decrypted libraries between runs
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Library     Library     `toml:"library"`
	Export      Export      `toml:"export"`
	DecodeCache DecodeCache `toml:"decode_cache"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the config at path, or discovers one when path is empty, then
// applies defaults, environment overrides and validation. It reports the file
// it settled on and whether that file existed. Unknown keys are rejected so a
// misspelled setting does not silently fall back to its default.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: unknown setting\n%s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// resolveConfigPath honours an explicit path even when the file is missing.
// Otherwise the per-user file wins over ./tunesync.toml, and the per-user
// location is reported when neither exists.
func resolveConfigPath(explicit string) (string, bool, error) {
	if explicit != "" {
		expanded, err := expandPath(explicit)
		if err != nil {
			return "", false, err
		}
		switch _, err := os.Stat(expanded); {
		case err == nil:
			return expanded, true, nil
		case errors.Is(err, fs.ErrNotExist):
			return expanded, false, nil
		default:
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}

	userPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	localPath, err := filepath.Abs("tunesync.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, localPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

// EnsureDirectories creates the directories tunesync writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, c.Paths.PlaylistDir}
	if c.DecodeCache.Enabled {
		dirs = append(dirs, c.Paths.CacheDir)
	}
	if c.Paths.LogDir != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CatalogPath returns the location of the export catalog database.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.StateDir, "catalog.db")
}

// MusicDBKey returns the AES key for the musicdb envelope. library.key wins
// over paths.key_file. Hex text of a valid AES key length is decoded; any
// other text is used as raw key bytes.
func (c *Config) MusicDBKey() ([]byte, error) {
	if key := strings.TrimSpace(c.Library.Key); key != "" {
		return ParseKey(key), nil
	}
	if c.Paths.KeyFile == "" {
		return nil, errors.New("no musicdb key configured. Set library.key, paths.key_file or TUNESYNC_MUSICDB_KEY")
	}
	data, err := os.ReadFile(c.Paths.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return nil, fmt.Errorf("key file %s is empty", c.Paths.KeyFile)
	}
	return ParseKey(key), nil
}

// ParseKey turns key text into key bytes.
func ParseKey(text string) []byte {
	text = strings.TrimSpace(text)
	switch len(text) {
	case 32, 48, 64:
		if raw, err := hex.DecodeString(text); err == nil {
			return raw
		}
	}
	return []byte(text)
}

// expandPath resolves a leading "~" against the home directory and returns
// an absolute, cleaned path. Empty stays empty.
func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if rest, ok := strings.CutPrefix(value, "~"); ok && (rest == "" || rest[0] == '/' || rest[0] == '\\') {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, strings.TrimLeft(rest, `/\`))
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

// ExpandPath applies the same "~" and absolute path rules used for config
// values.
func ExpandPath(value string) (string, error) {
	return expandPath(value)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "tunesync", "decoded")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/tunesync/decoded"
	}
	return filepath.Join(home, ".cache", "tunesync", "decoded")
}

// CreateSample writes the commented sample configuration to path.
func CreateSample(path string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
