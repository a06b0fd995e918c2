package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"tunesync/internal/config"
)

// ErrInvalidExport reports an export record that cannot be stored.
var ErrInvalidExport = errors.New("invalid export record")

// Store manages the export catalog backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// catalogPragmas are applied by the driver to every pooled connection.
var catalogPragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// Open initializes or connects to the catalog database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.CatalogPath()
	db, err := sql.Open("sqlite", catalogDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open catalog %s: %w", dbPath, err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordExport stores a finished run and its playlists in one transaction.
func (s *Store) RecordExport(ctx context.Context, export Export) error {
	if strings.TrimSpace(export.RunID) == "" {
		return fmt.Errorf("%w: run id is required", ErrInvalidExport)
	}
	if strings.TrimSpace(export.Source) == "" {
		return fmt.Errorf("%w: source is required", ErrInvalidExport)
	}
	ctx = ensureContext(ctx)

	_, err := withRetry(ctx, func() (struct{}, error) {
		return struct{}{}, s.insertExport(ctx, export)
	})
	return err
}

func (s *Store) insertExport(ctx context.Context, export Export) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin export tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO exports (
                run_id, source, library_path, fingerprint,
                started_at, finished_at, written, skipped
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		export.RunID,
		export.Source,
		nullableString(export.LibraryPath),
		nullableString(export.Fingerprint),
		formatTime(export.StartedAt),
		formatTime(export.FinishedAt),
		export.Written,
		export.Skipped,
	); err != nil {
		return fmt.Errorf("insert export %s: %w", export.RunID, err)
	}

	for _, pl := range export.Playlists {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO exported_playlists (
                    run_id, name, track_count, duration_ms, path, skipped
                ) VALUES (?, ?, ?, ?, ?, ?)`,
			export.RunID,
			pl.Name,
			pl.TrackCount,
			int64(pl.DurationMS),
			nullableString(pl.Path),
			boolToInt(pl.Skipped),
		); err != nil {
			return fmt.Errorf("insert playlist %q: %w", pl.Name, err)
		}
	}
	return tx.Commit()
}

// ListExports returns recorded runs, newest first. A non-positive limit
// returns every run. Playlists are not populated.
func (s *Store) ListExports(ctx context.Context, limit int) ([]Export, error) {
	ctx = ensureContext(ctx)
	query := `SELECT run_id, source, library_path, fingerprint, started_at, finished_at, written, skipped
        FROM exports ORDER BY started_at DESC, run_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var exports []Export
	for rows.Next() {
		export, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		exports = append(exports, export)
	}
	return exports, rows.Err()
}

// GetExport returns one run with its playlists, or nil when the run id is unknown.
func (s *Store) GetExport(ctx context.Context, runID string) (*Export, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, source, library_path, fingerprint, started_at, finished_at, written, skipped
        FROM exports WHERE run_id = ?`, runID)
	export, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	playlists, err := s.ExportedPlaylists(ctx, runID)
	if err != nil {
		return nil, err
	}
	export.Playlists = playlists
	return &export, nil
}

// ExportedPlaylists returns the playlists recorded for runID in insert order.
func (s *Store) ExportedPlaylists(ctx context.Context, runID string) ([]ExportedPlaylist, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, track_count, duration_ms, path, skipped
        FROM exported_playlists WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list playlists for %s: %w", runID, err)
	}
	defer rows.Close()

	var playlists []ExportedPlaylist
	for rows.Next() {
		var (
			pl       ExportedPlaylist
			duration int64
			path     sql.NullString
			skipped  int
		)
		if err := rows.Scan(&pl.Name, &pl.TrackCount, &duration, &path, &skipped); err != nil {
			return nil, fmt.Errorf("scan exported playlist: %w", err)
		}
		pl.DurationMS = uint64(duration)
		pl.Path = path.String
		pl.Skipped = skipped != 0
		playlists = append(playlists, pl)
	}
	return playlists, rows.Err()
}

// Clear removes every recorded run.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM exports`)
	if err != nil {
		return 0, fmt.Errorf("clear exports: %w", err)
	}
	return res.RowsAffected()
}

// catalogDSN appends the connection pragmas to path as driver query
// parameters.
func catalogDSN(path string) string {
	params := make(url.Values)
	for _, pragma := range catalogPragmas {
		params.Add("_pragma", pragma)
	}
	return path + "?" + params.Encode()
}
