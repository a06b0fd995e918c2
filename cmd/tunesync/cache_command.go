package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tunesync/internal/decodecache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the decode cache",
		Long: `Inspect and manage the decode cache.

The decode cache keeps decrypted musicdb buffers keyed by the fingerprint of
the encrypted file, so an unchanged library is not decrypted again.

Commands:
  list     - List cached buffers
  remove   - Remove one entry by fingerprint (see 'list')
  clear    - Remove all cached entries`,
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

type cacheEntryView struct {
	Fingerprint    string `json:"fingerprint"`
	SourcePath     string `json:"source_path"`
	EnvelopeLength uint32 `json:"envelope_length"`
	DecodedSize    int    `json:"decoded_size"`
	StoredSize     int64  `json:"stored_size"`
	CachedAt       string `json:"cached_at"`
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached decoded buffers",
		Long:  "Display every decode cache entry, most recently cached first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := cacheManager(ctx)
			if err != nil {
				return err
			}
			entries, err := cache.List()
			if err != nil {
				return fmt.Errorf("list cache: %w", err)
			}

			views := make([]cacheEntryView, 0, len(entries))
			rows := make([][]string, 0, len(entries))
			const stampLayout = "2006-01-02 15:04"
			for _, entry := range entries {
				cachedAt := "unknown"
				if !entry.CachedAt.IsZero() {
					cachedAt = entry.CachedAt.Local().Format(stampLayout)
				}
				views = append(views, cacheEntryView{
					Fingerprint:    entry.Fingerprint,
					SourcePath:     entry.SourcePath,
					EnvelopeLength: entry.EnvelopeLength,
					DecodedSize:    entry.DecodedSize,
					StoredSize:     entry.StoredSize,
					CachedAt:       cachedAt,
				})
				rows = append(rows, []string{
					shortFingerprint(entry.Fingerprint),
					entry.SourcePath,
					humanize.IBytes(uint64(entry.DecodedSize)),
					humanize.IBytes(uint64(entry.StoredSize)),
					cachedAt,
				})
			}
			columns := []column{
				{Header: "Fingerprint"},
				{Header: "Library", Width: 60},
				{Header: "Decoded", Align: alignRight},
				{Header: "Stored", Align: alignRight},
				{Header: "Cached"},
			}
			return writeTableOrJSON(cmd, ctx.JSONMode(), views, columns, rows, "Decode cache: empty")
		},
	}
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <fingerprint>",
		Short: "Remove one cache entry",
		Long: `Remove one cache entry by its full fingerprint.

Example:
  tunesync cache list --json     # Shows full fingerprints
  tunesync cache remove <fingerprint>`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := cacheManager(ctx)
			if err != nil {
				return err
			}
			if err := cache.Remove(args[0]); err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"removed":     true,
					"fingerprint": args[0],
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed decode cache entry %s\n", shortFingerprint(args[0]))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cache entries",
		Long:  "Delete every cached buffer. Libraries are decrypted again on their next read.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := cacheManager(ctx)
			if err != nil {
				return err
			}
			count, err := cache.Clear()
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"removed": count})
			}
			if count == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Decode cache is already empty")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d decode cache entries\n", count)
			return nil
		},
	}
}

// cacheManager opens the configured cache directory even when the cache is
// disabled, so stale entries can still be inspected and cleared.
func cacheManager(ctx *commandContext) (*decodecache.Cache, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, err
	}
	return decodecache.New(cfg.Paths.CacheDir, cfg.DecodeCache.MaxEntries, logger), nil
}

func shortFingerprint(fp string) string {
	if len(fp) > 16 {
		return fp[:8] + "..." + fp[len(fp)-4:]
	}
	return fp
}
