package musicdb

import (
	"fmt"
	"log/slog"
	"time"

	"tunesync/internal/logging"
)

// Decode runs the full pipeline on raw envelope bytes: decrypt, walk the
// chunk stream, and build the track table.
func Decode(raw, key []byte, opts ...Option) (*Library, error) {
	buf, err := Decrypt(raw, key)
	if err != nil {
		return nil, err
	}
	return Parse(buf, opts...)
}

// Parse decodes an already decrypted buffer.
func Parse(buf []byte, opts ...Option) (*Library, error) {
	o := newOptions(opts)
	chunks, err := ReadChunks(buf, opts...)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("chunk stream read",
		logging.Int("chunk_count", len(chunks)),
		logging.Int("buffer_bytes", len(buf)),
	)
	return NewLibrary(chunks, opts...)
}

// Open reads, decrypts and decodes the library file at path.
func Open(path string, key []byte, opts ...Option) (*Library, error) {
	o := newOptions(opts)
	started := time.Now()

	buf, err := DecryptFile(path, key)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	lib, err := Parse(buf, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	o.logger.Info("library decoded",
		logging.String(logging.FieldLibraryPath, path),
		logging.Int("track_count", lib.TrackCount()),
		slog.Duration("elapsed", time.Since(started)),
	)
	return lib, nil
}
