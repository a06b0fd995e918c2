package decodecache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"tunesync/internal/config"
	"tunesync/internal/fileutil"
	"tunesync/internal/fingerprint"
	"tunesync/internal/logging"
)

const (
	payloadExt = ".zst"
	sidecarExt = ".cbor"
)

// ErrInvalidFingerprint reports a cache key that is not a library fingerprint.
var ErrInvalidFingerprint = errors.New("invalid fingerprint")

// Entry describes one cached decoded buffer.
type Entry struct {
	Fingerprint    string    `cbor:"fingerprint"`
	SourcePath     string    `cbor:"source_path"`
	EnvelopeLength uint32    `cbor:"envelope_length"`
	DecodedSize    int       `cbor:"decoded_size"`
	StoredSize     int64     `cbor:"stored_size"`
	CachedAt       time.Time `cbor:"cached_at"`
}

// Cache stores decoded buffers in a directory. The zero-directory cache is
// non-functional: every operation is a no-op and Lookup always misses.
type Cache struct {
	dir        string
	maxEntries int
	logger     *slog.Logger
	mu         sync.Mutex
}

// New creates a cache rooted at dir holding at most maxEntries entries.
// A non-positive maxEntries disables pruning.
func New(dir string, maxEntries int, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cache{
		dir:        strings.TrimSpace(dir),
		maxEntries: maxEntries,
		logger:     logging.NewComponentLogger(logger, "decodecache"),
	}
}

// NewFromConfig builds the cache described by cfg. A disabled cache is
// returned as a no-op instance.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Cache {
	if cfg == nil || !cfg.DecodeCache.Enabled {
		return New("", 0, logger)
	}
	return New(cfg.Paths.CacheDir, cfg.DecodeCache.MaxEntries, logger)
}

// Enabled reports whether the cache is backed by a directory.
func (c *Cache) Enabled() bool {
	return c != nil && c.dir != ""
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// Lookup returns the decoded buffer cached under fp. Corrupt entries are
// removed and reported as misses.
func (c *Cache) Lookup(fp string) ([]byte, Entry, bool) {
	if !c.Enabled() || !fingerprint.Valid(fp) {
		return nil, Entry{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, err := c.readEntry(fp)
	if errors.Is(err, fs.ErrNotExist) && !fileutil.Exists(c.payloadPath(fp)) {
		return nil, Entry{}, false
	}
	if err == nil {
		var payload []byte
		payload, err = os.ReadFile(c.payloadPath(fp))
		if err == nil {
			var buf []byte
			buf, err = decompress(payload, entry.DecodedSize)
			if err == nil {
				c.logger.Debug("decode cache hit",
					logging.String("fingerprint", fp),
					logging.Int("decoded_size", entry.DecodedSize))
				return buf, entry, true
			}
		}
	}

	logging.WarnWithContext(c.logger, "discarding corrupt decode cache entry", "decodecache_corrupt",
		logging.String("fingerprint", fp),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "the library will be decoded again"),
	)
	c.removeLocked(fp)
	return nil, Entry{}, false
}

// Store caches buf under entry.Fingerprint and prunes the oldest entries past
// the configured size.
func (c *Cache) Store(entry Entry, buf []byte) error {
	if !fingerprint.Valid(entry.Fingerprint) {
		return fmt.Errorf("%w: %q", ErrInvalidFingerprint, entry.Fingerprint)
	}
	if !c.Enabled() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	payload := compress(buf)
	entry.DecodedSize = len(buf)
	entry.StoredSize = int64(len(payload))
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}
	sidecar, err := encodeEntry(entry)
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}

	if err := fileutil.WriteFileAtomic(c.payloadPath(entry.Fingerprint), payload, 0o644); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	if err := fileutil.WriteFileAtomic(c.sidecarPath(entry.Fingerprint), sidecar, 0o644); err != nil {
		_ = os.Remove(c.payloadPath(entry.Fingerprint))
		return fmt.Errorf("write sidecar: %w", err)
	}

	c.logger.Debug("cached decoded library",
		logging.String("fingerprint", entry.Fingerprint),
		logging.Int("decoded_size", entry.DecodedSize),
		logging.Int64("stored_size", entry.StoredSize))

	return c.pruneLocked()
}

// List returns all readable entries sorted by CachedAt descending (newest first).
func (c *Cache) List() ([]Entry, error) {
	if !c.Enabled() {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.listLocked()
}

// Remove deletes the entry cached under fp.
func (c *Cache) Remove(fp string) error {
	if !fingerprint.Valid(fp) {
		return fmt.Errorf("%w: %q", ErrInvalidFingerprint, fp)
	}
	if !c.Enabled() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.sidecarPath(fp)); err != nil {
		return fmt.Errorf("fingerprint %q not found in cache", fp)
	}
	c.removeLocked(fp)
	return nil
}

// Clear removes every entry and returns how many were removed.
func (c *Cache) Clear() (int, error) {
	if !c.Enabled() {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.keysLocked()
	if err != nil {
		return 0, err
	}
	for _, fp := range keys {
		c.removeLocked(fp)
	}
	c.logger.Debug("cleared decode cache", logging.Int("entry_count", len(keys)))
	return len(keys), nil
}

func (c *Cache) listLocked() ([]Entry, error) {
	keys, err := c.keysLocked()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(keys))
	for _, fp := range keys {
		entry, err := c.readEntry(fp)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CachedAt.After(entries[j].CachedAt)
	})
	return entries, nil
}

// keysLocked returns every fingerprint with a payload or sidecar file.
func (c *Cache) keysLocked() ([]string, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache directory: %w", err)
	}
	seen := make(map[string]struct{})
	var keys []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		ext := filepath.Ext(name)
		if ext != payloadExt && ext != sidecarExt {
			continue
		}
		fp := strings.TrimSuffix(name, ext)
		if !fingerprint.Valid(fp) {
			continue
		}
		if _, ok := seen[fp]; ok {
			continue
		}
		seen[fp] = struct{}{}
		keys = append(keys, fp)
	}
	sort.Strings(keys)
	return keys, nil
}

func (c *Cache) pruneLocked() error {
	if c.maxEntries <= 0 {
		return nil
	}
	entries, err := c.listLocked()
	if err != nil {
		return err
	}
	for _, entry := range entries[min(len(entries), c.maxEntries):] {
		c.removeLocked(entry.Fingerprint)
		c.logger.Debug("pruned decode cache entry", logging.String("fingerprint", entry.Fingerprint))
	}
	return nil
}

func (c *Cache) readEntry(fp string) (Entry, error) {
	data, err := os.ReadFile(c.sidecarPath(fp))
	if err != nil {
		return Entry{}, err
	}
	entry, err := decodeEntry(data)
	if err != nil {
		return Entry{}, err
	}
	if entry.Fingerprint != fp {
		return Entry{}, fmt.Errorf("sidecar fingerprint %q does not match %q", entry.Fingerprint, fp)
	}
	return entry, nil
}

func (c *Cache) removeLocked(fp string) {
	_ = os.Remove(c.payloadPath(fp))
	_ = os.Remove(c.sidecarPath(fp))
}

func (c *Cache) payloadPath(fp string) string {
	return filepath.Join(c.dir, fp+payloadExt)
}

func (c *Cache) sidecarPath(fp string) string {
	return filepath.Join(c.dir, fp+sidecarExt)
}
