package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"tunesync/internal/catalog"
	"tunesync/internal/config"
	"tunesync/internal/fileutil"
	"tunesync/internal/logging"
	"tunesync/internal/playlist"
	"tunesync/internal/services"
	"tunesync/internal/textutil"
	"tunesync/internal/zpl"
)

// LockFileName is the advisory lock held in the playlist directory.
const LockFileName = ".tunesync.lock"

var (
	// ErrLocked reports another run holding the playlist directory lock.
	ErrLocked = errors.New("export directory is locked by another run")
	// ErrWriteFailed reports playlists that could not be written.
	ErrWriteFailed = errors.New("playlist write failed")
)

// Options carries collaborators and provenance for a run.
type Options struct {
	Logger *slog.Logger
	// Catalog records the run when set.
	Catalog *catalog.Store
	// Source, LibraryPath and Fingerprint describe the library being read.
	Source      string
	LibraryPath string
	Fingerprint string
	// DryRun renders and reports without touching the playlist directory.
	DryRun bool
}

// PlaylistResult describes one handled playlist.
type PlaylistResult struct {
	Name       string
	Path       string
	TrackCount int
	DurationMS uint64
	Skipped    bool
	Err        error
}

// Result summarizes a run.
type Result struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Written    int
	Skipped    int
	Failed     int
	Playlists  []PlaylistResult
	// Missing lists configured playlist names the library did not yield.
	Missing []string
}

// Run exports the playlists reader yields that cfg selects.
func Run(ctx context.Context, cfg *config.Config, reader playlist.Reader, opts Options) (*Result, error) {
	if cfg == nil || reader == nil {
		return nil, services.Wrap(services.ErrConfiguration, "export", "run", "config and reader are required", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Source == "" {
		opts.Source = cfg.Library.Source
	}

	dir := cfg.Paths.PlaylistDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, "export", "prepare directory", dir, err)
	}

	lock := flock.New(filepath.Join(dir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "export", "acquire lock", dir, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConflict, "export", "acquire lock", dir, ErrLocked)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release export lock", logging.Error(err))
		}
	}()

	result := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	ctx = services.WithRunID(ctx, result.RunID)
	ctx = services.WithSource(ctx, opts.Source)
	runLogger := logging.WithContext(ctx, logging.NewComponentLogger(logger, "export"))
	runLogger.Info("export started",
		logging.String("playlist_dir", dir),
		logging.Int("selected", len(cfg.Export.Playlists)),
		logging.Bool("overwrite", cfg.Export.Overwrite),
		logging.Bool("dry_run", opts.DryRun),
	)

	selection := textutil.NewNameSet(cfg.Export.Playlists)
	taken := make(map[string]struct{})
	var (
		matched  []string
		failures []error
	)
	for pl, iterErr := range reader.Playlists() {
		if iterErr != nil {
			return nil, services.Wrap(services.ErrValidation, "export", "read playlists", "", iterErr)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !selection.Match(pl.Name) {
			continue
		}
		matched = append(matched, pl.Name)

		path := uniquePath(dir, zpl.FileName(pl.Name), taken)
		entry := PlaylistResult{
			Name:       pl.Name,
			Path:       path,
			TrackCount: len(pl.Tracks),
			DurationMS: pl.TotalDuration(),
		}
		plLogger := logging.WithContext(services.WithPlaylist(ctx, pl.Name), runLogger)

		switch {
		case !cfg.Export.Overwrite && fileutil.Exists(path):
			entry.Skipped = true
			result.Skipped++
			plLogger.Info("playlist skipped",
				logging.String("path", path),
				logging.String("reason", "file exists"),
			)
		case opts.DryRun:
			result.Written++
			plLogger.Info("playlist would be written",
				logging.String("path", path),
				logging.Int("track_count", entry.TrackCount),
			)
		default:
			if err := writePlaylist(path, pl, cfg.Export.Generator); err != nil {
				entry.Err = err
				result.Failed++
				failures = append(failures, fmt.Errorf("%s: %w", pl.Name, err))
				logging.ErrorWithContext(plLogger, "playlist write failed", "playlist_write_failed",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check permissions and free space in the playlist directory"),
				)
				break
			}
			result.Written++
			plLogger.Info("playlist written",
				logging.String("path", path),
				logging.Int("track_count", entry.TrackCount),
				logging.Uint64("duration_ms", entry.DurationMS),
			)
		}
		result.Playlists = append(result.Playlists, entry)
	}

	result.Missing = selection.Missing(matched)
	for _, name := range result.Missing {
		logging.WarnWithContext(runLogger, "selected playlist not found", "playlist_missing",
			logging.String(logging.FieldPlaylist, name),
			logging.String(logging.FieldImpact, "no file written for this playlist"),
		)
	}
	result.FinishedAt = time.Now().UTC()

	if opts.Catalog != nil && !opts.DryRun {
		if err := opts.Catalog.RecordExport(ctx, catalogRecord(result, opts)); err != nil {
			logging.WarnWithContext(runLogger, "failed to record export", "catalog_record_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run missing from history"),
			)
		}
	}

	runLogger.Info("export finished",
		logging.Int("written", result.Written),
		logging.Int("skipped", result.Skipped),
		logging.Int("failed", result.Failed),
		logging.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)),
	)

	if len(failures) > 0 {
		return result, fmt.Errorf("%w: %w", ErrWriteFailed, errors.Join(failures...))
	}
	return result, nil
}

func writePlaylist(path string, pl *playlist.Playlist, generator string) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return zpl.Render(w, pl, zpl.Options{Generator: generator})
	})
}

// uniquePath keeps two playlists that sanitize to the same file name from
// overwriting each other within one run.
func uniquePath(dir, name string, taken map[string]struct{}) string {
	base := strings.TrimSuffix(name, zpl.Extension)
	candidate := name
	for n := 2; ; n++ {
		key := textutil.FoldName(candidate)
		if _, ok := taken[key]; !ok {
			taken[key] = struct{}{}
			return filepath.Join(dir, candidate)
		}
		candidate = fmt.Sprintf("%s (%d)%s", base, n, zpl.Extension)
	}
}

func catalogRecord(result *Result, opts Options) catalog.Export {
	record := catalog.Export{
		RunID:       result.RunID,
		Source:      opts.Source,
		LibraryPath: opts.LibraryPath,
		Fingerprint: opts.Fingerprint,
		StartedAt:   result.StartedAt,
		FinishedAt:  result.FinishedAt,
		Written:     result.Written,
		Skipped:     result.Skipped,
	}
	for _, pl := range result.Playlists {
		if pl.Err != nil {
			continue
		}
		record.Playlists = append(record.Playlists, catalog.ExportedPlaylist{
			Name:       pl.Name,
			TrackCount: pl.TrackCount,
			DurationMS: pl.DurationMS,
			Path:       pl.Path,
			Skipped:    pl.Skipped,
		})
	}
	return record
}
