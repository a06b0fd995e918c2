package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tunesync/internal/catalog"
	"tunesync/internal/export"
	"tunesync/internal/preflight"
	"tunesync/internal/services"
)

type exportView struct {
	RunID     string               `json:"run_id,omitempty"`
	DryRun    bool                 `json:"dry_run"`
	Written   int                  `json:"written"`
	Skipped   int                  `json:"skipped"`
	Failed    int                  `json:"failed"`
	Missing   []string             `json:"missing"`
	Playlists []exportPlaylistView `json:"playlists"`
	Error     string               `json:"error,omitempty"`
}

type exportPlaylistView struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	TrackCount int    `json:"track_count"`
	DurationMS uint64 `json:"duration_ms"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var overwrite bool
	var names []string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write library playlists as .zpl files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if len(names) > 0 {
				cfg.Export.Playlists = trimNames(names)
			}
			if overwrite {
				cfg.Export.Overwrite = true
			}

			if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
				details := make([]string, 0, len(failed))
				for _, r := range failed {
					details = append(details, fmt.Sprintf("%s: %s", r.Name, r.Detail))
				}
				return services.Wrap(services.ErrConfiguration, "cli", "preflight",
					strings.Join(details, "; "), nil)
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			lib, err := ctx.openLibrary(cmd)
			if err != nil {
				return err
			}

			opts := export.Options{
				Logger:      logger,
				Source:      lib.Source,
				LibraryPath: lib.Path,
				Fingerprint: lib.Fingerprint,
				DryRun:      dryRun,
			}
			run := func() (*export.Result, error) {
				return export.Run(cmd.Context(), cfg, lib, opts)
			}
			var (
				result *export.Result
				runErr error
			)
			if dryRun {
				result, runErr = run()
			} else {
				err = ctx.withCatalog(func(store *catalog.Store) error {
					opts.Catalog = store
					result, runErr = run()
					return nil
				})
				if err != nil {
					return err
				}
			}
			if result == nil {
				return runErr
			}

			view := newExportView(result, dryRun, runErr)
			if ctx.JSONMode() {
				if err := writeJSON(cmd, view); err != nil {
					return err
				}
				return runErr
			}
			renderExportSummary(cmd, view, result.FinishedAt.Sub(result.StartedAt))
			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be written without touching the playlist directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace playlist files that already exist")
	cmd.Flags().StringArrayVarP(&names, "playlist", "p", nil, "Export only this playlist (repeatable, overrides export.playlists)")
	return cmd
}

func newExportView(result *export.Result, dryRun bool, runErr error) exportView {
	view := exportView{
		DryRun:    dryRun,
		Written:   result.Written,
		Skipped:   result.Skipped,
		Failed:    result.Failed,
		Missing:   append([]string{}, result.Missing...),
		Playlists: make([]exportPlaylistView, 0, len(result.Playlists)),
	}
	if !dryRun {
		view.RunID = result.RunID
	}
	if runErr != nil {
		view.Error = runErr.Error()
	}
	for _, pl := range result.Playlists {
		entry := exportPlaylistView{
			Name:       pl.Name,
			Path:       pl.Path,
			TrackCount: pl.TrackCount,
			DurationMS: pl.DurationMS,
			Status:     playlistStatus(pl, dryRun),
		}
		if pl.Err != nil {
			entry.Error = pl.Err.Error()
		}
		view.Playlists = append(view.Playlists, entry)
	}
	return view
}

func playlistStatus(pl export.PlaylistResult, dryRun bool) string {
	switch {
	case pl.Err != nil:
		return "failed"
	case pl.Skipped:
		return "skipped"
	case dryRun:
		return "would write"
	default:
		return "written"
	}
}

func renderExportSummary(cmd *cobra.Command, view exportView, elapsed time.Duration) {
	out := cmd.OutOrStdout()
	if len(view.Playlists) > 0 {
		rows := make([][]string, 0, len(view.Playlists))
		for _, pl := range view.Playlists {
			rows = append(rows, []string{
				pl.Name,
				fmt.Sprintf("%d", pl.TrackCount),
				formatMillis(pl.DurationMS),
				pl.Status,
				pl.Path,
			})
		}
		fmt.Fprintln(out, renderTable([]column{
			{Header: "Playlist", Width: 40},
			{Header: "Tracks", Align: alignRight},
			{Header: "Length", Align: alignRight},
			{Header: "Status"},
			{Header: "File", Width: 60},
		}, rows))
	} else {
		fmt.Fprintln(out, "No playlists matched")
	}

	verb := "Wrote"
	if view.DryRun {
		verb = "Would write"
	}
	fmt.Fprintf(out, "%s %d playlist(s), skipped %d, failed %d in %s\n",
		verb, view.Written, view.Skipped, view.Failed, elapsed.Round(time.Millisecond))
	if len(view.Missing) > 0 {
		fmt.Fprintf(out, "Not found in library: %s\n", strings.Join(view.Missing, ", "))
	}
	if view.RunID != "" {
		fmt.Fprintf(out, "Run ID: %s\n", view.RunID)
	}
}

func trimNames(values []string) []string {
	names := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			names = append(names, value)
		}
	}
	return names
}
