package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tunesync/internal/catalog"
	"tunesync/internal/config"
	"tunesync/internal/decodecache"
	"tunesync/internal/preflight"
)

type statusSection struct {
	Title string       `json:"title"`
	Lines []statusLine `json:"lines"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the library, key and directories tunesync uses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			checks := preflight.RunAll(cmd.Context(), cfg)
			sections := []statusSection{
				configSection(ctx, cfg),
				{Title: "Checks", Lines: preflightLines(checks)},
				historySection(cmd, ctx),
				cacheSection(cfg),
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"ready":    len(preflight.Failed(checks)) == 0,
					"sections": sections,
				})
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for i, section := range sections {
				if i > 0 {
					fmt.Fprintln(out)
				}
				for _, line := range renderSectionHeader(section.Title, colorize) {
					fmt.Fprintln(out, line)
				}
				for _, line := range section.Lines {
					fmt.Fprintln(out, renderStatusLine(line, colorize))
				}
			}
			return nil
		},
	}
}

func configSection(ctx *commandContext, cfg *config.Config) statusSection {
	path := ctx.configPath
	if path == "" {
		path = "defaults"
	}
	return statusSection{
		Title: "Configuration",
		Lines: []statusLine{
			newStatusLine("Config file", statusInfo, path),
			newStatusLine("Library source", statusInfo, fmt.Sprintf("%s (%s)", cfg.Library.Source, libraryPath(cfg))),
			newStatusLine("Playlist directory", statusInfo, cfg.Paths.PlaylistDir),
			newStatusLine("Legacy ids", statusInfo, yesNo(cfg.Library.LegacyIDs)),
		},
	}
}

func preflightLines(results []preflight.Result) []statusLine {
	lines := make([]statusLine, 0, len(results))
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		lines = append(lines, newStatusLine(r.Name, kind, r.Detail))
	}
	return lines
}

func historySection(cmd *cobra.Command, ctx *commandContext) statusSection {
	section := statusSection{Title: "Exports"}
	err := ctx.withCatalog(func(store *catalog.Store) error {
		exports, err := store.ListExports(cmd.Context(), 1)
		if err != nil {
			return err
		}
		if len(exports) == 0 {
			section.Lines = append(section.Lines, newStatusLine("Last export", statusWarn, "never"))
			return nil
		}
		last := exports[0]
		section.Lines = append(section.Lines, newStatusLine("Last export", statusOK,
			fmt.Sprintf("%s (%s), %d written, %d skipped",
				last.FinishedAt.Local().Format(time.DateTime), humanize.Time(last.FinishedAt), last.Written, last.Skipped)))
		return nil
	})
	if err != nil {
		section.Lines = append(section.Lines, newStatusLine("Catalog", statusError, err.Error()))
	}
	return section
}

func cacheSection(cfg *config.Config) statusSection {
	section := statusSection{Title: "Decode cache"}
	if !cfg.DecodeCache.Enabled {
		section.Lines = append(section.Lines, newStatusLine("Decode cache", statusInfo, "disabled"))
		return section
	}
	entries, err := decodecache.NewFromConfig(cfg, nil).List()
	if err != nil {
		section.Lines = append(section.Lines, newStatusLine("Decode cache", statusError, err.Error()))
		return section
	}
	section.Lines = append(section.Lines, newStatusLine("Decode cache", statusOK,
		fmt.Sprintf("%d of %d entries (%s)", len(entries), cfg.DecodeCache.MaxEntries, cfg.Paths.CacheDir)))
	return section
}
