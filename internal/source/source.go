package source

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"time"

	"tunesync/internal/config"
	"tunesync/internal/decodecache"
	"tunesync/internal/fingerprint"
	"tunesync/internal/itunesxml"
	"tunesync/internal/logging"
	"tunesync/internal/musicdb"
	"tunesync/internal/playlist"
	"tunesync/internal/services"
)

// Library is an opened library together with where it came from.
type Library struct {
	playlist.Reader

	Source      string
	Path        string
	Fingerprint string
	// CacheHit is true when the decoded buffer came from the decode cache.
	CacheHit bool

	// MusicDB is set for the musicdb source.
	MusicDB *musicdb.Library
	// Decoded is the decrypted musicdb buffer, envelope prefix included.
	Decoded []byte
	// ITunes is set for the itunes_xml source.
	ITunes *itunesxml.Library
}

// TrackCount returns the number of tracks known to the library.
func (l *Library) TrackCount() int {
	switch {
	case l.MusicDB != nil:
		return l.MusicDB.TrackCount()
	case l.ITunes != nil:
		return l.ITunes.TrackCount()
	default:
		return 0
	}
}

// Tracks yields track ids and tracks in the order the source keeps them.
func (l *Library) Tracks() iter.Seq2[string, *playlist.Track] {
	switch {
	case l.MusicDB != nil:
		return l.MusicDB.Tracks()
	case l.ITunes != nil:
		return l.ITunes.Tracks()
	default:
		return func(func(string, *playlist.Track) bool) {}
	}
}

// Option customizes Open.
type Option func(*openOptions)

type openOptions struct {
	logger *slog.Logger
	key    []byte
	cache  *decodecache.Cache
}

// WithLogger routes diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *openOptions) { o.logger = logger }
}

// WithKey overrides the configured musicdb key.
func WithKey(key []byte) Option {
	return func(o *openOptions) { o.key = key }
}

// WithCache supplies the decode cache. Without it the cache described by the
// configuration is used.
func WithCache(cache *decodecache.Cache) Option {
	return func(o *openOptions) { o.cache = cache }
}

// Open loads the configured library.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Library, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "source", "open", "configuration is required", nil)
	}
	o := openOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	logger := logging.NewComponentLogger(o.logger, "source").With(
		logging.String(logging.FieldSource, cfg.Library.Source),
	)
	if o.cache == nil {
		o.cache = decodecache.NewFromConfig(cfg, o.logger)
	}

	switch cfg.Library.Source {
	case config.SourceMusicDB:
		return openMusicDB(ctx, cfg, o, logger)
	case config.SourceITunesXML:
		return openITunes(ctx, cfg, logger)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "source", "open",
			fmt.Sprintf("unknown library source %q", cfg.Library.Source), nil)
	}
}

func openMusicDB(ctx context.Context, cfg *config.Config, o openOptions, logger *slog.Logger) (*Library, error) {
	path := cfg.Paths.MusicDBPath
	started := time.Now()

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "source", "read musicdb", path, err)
		}
		return nil, services.Wrap(services.ErrTransient, "source", "read musicdb", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fp := fingerprint.Bytes(raw)

	buf, _, hit := o.cache.Lookup(fp)
	if !hit {
		header, err := musicdb.ParseHeader(raw)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "source", "parse musicdb header", path, err)
		}
		key := o.key
		if len(key) == 0 {
			key, err = cfg.MusicDBKey()
			if err != nil {
				return nil, services.Wrap(services.ErrConfiguration, "source", "load key", "", err)
			}
		}
		buf, err = musicdb.Decrypt(raw, key)
		if err != nil {
			marker := services.ErrValidation
			if errors.Is(err, musicdb.ErrInvalidKey) || errors.Is(err, musicdb.ErrDecompress) {
				// Wrong keys surface as inflate failures.
				marker = services.ErrConfiguration
			}
			return nil, services.Wrap(marker, "source", "decrypt musicdb", path, err)
		}
		entry := decodecache.Entry{
			Fingerprint:    fp,
			SourcePath:     path,
			EnvelopeLength: header.EnvelopeLength,
		}
		if err := o.cache.Store(entry, buf); err != nil {
			logging.WarnWithContext(logger, "decode cache store failed", "decodecache_store_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "the next run decodes the library again"),
			)
		}
	}

	idEncoding := musicdb.PaddedIDs
	if cfg.Library.LegacyIDs {
		idEncoding = musicdb.LegacyIDs
	}
	lib, err := musicdb.Parse(buf, musicdb.WithIDEncoding(idEncoding), musicdb.WithLogger(o.logger))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "source", "parse musicdb", path, err)
	}

	logger.Info("library opened",
		logging.String(logging.FieldLibraryPath, path),
		logging.String("fingerprint", fp),
		logging.Bool("cache_hit", hit),
		logging.Int("track_count", lib.TrackCount()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return &Library{
		Reader:      lib,
		Source:      config.SourceMusicDB,
		Path:        path,
		Fingerprint: fp,
		CacheHit:    hit,
		MusicDB:     lib,
		Decoded:     buf,
	}, nil
}

func openITunes(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Library, error) {
	path := cfg.Paths.ITunesXMLPath
	fp, err := fingerprint.FileContext(ctx, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "source", "read itunes xml", path, err)
		}
		return nil, services.Wrap(services.ErrTransient, "source", "read itunes xml", path, err)
	}
	lib, err := itunesxml.Load(path,
		itunesxml.WithRequireFiles(cfg.Library.RequireFiles),
		itunesxml.WithLogger(logger),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "source", "parse itunes xml", path, err)
	}
	return &Library{
		Reader:      lib,
		Source:      config.SourceITunesXML,
		Path:        path,
		Fingerprint: fp,
		ITunes:      lib,
	}, nil
}
