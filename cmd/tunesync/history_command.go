package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"tunesync/internal/catalog"
	"tunesync/internal/services"
)

type historyView struct {
	RunID       string                `json:"run_id"`
	Source      string                `json:"source"`
	LibraryPath string                `json:"library_path"`
	Fingerprint string                `json:"fingerprint"`
	StartedAt   time.Time             `json:"started_at"`
	FinishedAt  time.Time             `json:"finished_at"`
	Written     int                   `json:"written"`
	Skipped     int                   `json:"skipped"`
	Playlists   []historyPlaylistView `json:"playlists,omitempty"`
}

type historyPlaylistView struct {
	Name       string `json:"name"`
	TrackCount int    `json:"track_count"`
	DurationMS uint64 `json:"duration_ms"`
	Path       string `json:"path"`
	Skipped    bool   `json:"skipped"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded export runs",
		Long: `Show recorded export runs, newest first.

Pass a run id to list the playlists that run handled.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(store *catalog.Store) error {
				if len(args) == 1 {
					return showExport(cmd, ctx, store, args[0])
				}
				exports, err := store.ListExports(cmd.Context(), limit)
				if err != nil {
					return err
				}
				views := make([]historyView, 0, len(exports))
				rows := make([][]string, 0, len(exports))
				for _, e := range exports {
					views = append(views, newHistoryView(e))
					rows = append(rows, []string{
						e.RunID,
						e.StartedAt.Local().Format("2006-01-02 15:04:05"),
						e.Source,
						strconv.Itoa(e.Written),
						strconv.Itoa(e.Skipped),
						e.Duration().Round(time.Millisecond).String(),
					})
				}
				columns := []column{
					{Header: "Run"},
					{Header: "Started"},
					{Header: "Source"},
					{Header: "Written", Align: alignRight},
					{Header: "Skipped", Align: alignRight},
					{Header: "Took", Align: alignRight},
				}
				return writeTableOrJSON(cmd, ctx.JSONMode(), views, columns, rows, "No exports recorded")
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Show at most this many runs (0 for all)")

	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func showExport(cmd *cobra.Command, ctx *commandContext, store *catalog.Store, runID string) error {
	export, err := store.GetExport(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if export == nil {
		return services.Wrap(services.ErrNotFound, "cli", "history", fmt.Sprintf("no export with run id %s", runID), nil)
	}
	view := newHistoryView(*export)
	if ctx.JSONMode() {
		return writeJSON(cmd, view)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:         %s\n", view.RunID)
	fmt.Fprintf(out, "Source:      %s (%s)\n", view.Source, view.LibraryPath)
	fmt.Fprintf(out, "Fingerprint: %s\n", view.Fingerprint)
	fmt.Fprintf(out, "Started:     %s\n", view.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "Written:     %d, skipped %d\n", view.Written, view.Skipped)
	if len(view.Playlists) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(view.Playlists))
	for _, pl := range view.Playlists {
		status := "written"
		if pl.Skipped {
			status = "skipped"
		}
		rows = append(rows, []string{
			pl.Name,
			strconv.Itoa(pl.TrackCount),
			formatMillis(pl.DurationMS),
			status,
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
	return nil
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget every recorded export run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(store *catalog.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"removed": removed})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d export record(s)\n", removed)
				return nil
			})
		},
	}
}

func newHistoryView(e catalog.Export) historyView {
	view := historyView{
		RunID:       e.RunID,
		Source:      e.Source,
		LibraryPath: e.LibraryPath,
		Fingerprint: e.Fingerprint,
		StartedAt:   e.StartedAt,
		FinishedAt:  e.FinishedAt,
		Written:     e.Written,
		Skipped:     e.Skipped,
	}
	for _, pl := range e.Playlists {
		view.Playlists = append(view.Playlists, historyPlaylistView{
			Name:       pl.Name,
			TrackCount: pl.TrackCount,
			DurationMS: pl.DurationMS,
			Path:       pl.Path,
			Skipped:    pl.Skipped,
		})
	}
	return view
}
