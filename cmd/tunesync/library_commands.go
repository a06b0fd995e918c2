package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tunesync/internal/config"
	"tunesync/internal/fileutil"
	"tunesync/internal/musicdb"
	"tunesync/internal/services"
)

func newDecryptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <output>",
		Short: "Write the decrypted musicdb buffer to a file",
		Long: "Decrypt and inflate the configured Library.musicdb and write the result, " +
			"envelope header included, to <output>. Use - for stdout.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Library.Source != config.SourceMusicDB {
				return services.Wrap(services.ErrValidation, "cli", "decrypt",
					fmt.Sprintf("library.source is %q; decrypt needs musicdb", cfg.Library.Source), nil)
			}
			key, err := cfg.MusicDBKey()
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "cli", "load key", "", err)
			}
			buf, err := musicdb.DecryptFile(cfg.Paths.MusicDBPath, key)
			if err != nil {
				return wrapDecryptError(cfg.Paths.MusicDBPath, err)
			}

			target := strings.TrimSpace(args[0])
			if target == "-" {
				_, err := cmd.OutOrStdout().Write(buf)
				return err
			}
			target, err = config.ExpandPath(target)
			if err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}
			if err := fileutil.WriteFileAtomic(target, buf, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", target, err)
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"source": cfg.Paths.MusicDBPath,
					"output": target,
					"bytes":  len(buf),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d decoded bytes to %s\n", len(buf), target)
			return nil
		},
	}
}

func wrapDecryptError(path string, err error) error {
	switch {
	case errors.Is(err, musicdb.ErrInvalidKey), errors.Is(err, musicdb.ErrDecompress):
		return services.Wrap(services.ErrConfiguration, "cli", "decrypt musicdb",
			"check the musicdb key", err)
	case errors.Is(err, os.ErrNotExist):
		return services.Wrap(services.ErrNotFound, "cli", "decrypt musicdb", path, err)
	case errors.Is(err, musicdb.ErrFormat):
		return services.Wrap(services.ErrValidation, "cli", "decrypt musicdb", path, err)
	default:
		return services.Wrap(services.ErrTransient, "cli", "decrypt musicdb", path, err)
	}
}

type chunkView struct {
	Index  int    `json:"index"`
	Offset int    `json:"offset"`
	Tag    string `json:"tag"`
	Length uint32 `json:"length"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

func newChunksCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var tag string

	cmd := &cobra.Command{
		Use:   "chunks",
		Short: "List the decoded chunk stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := ctx.openLibrary(cmd)
			if err != nil {
				return err
			}
			if lib.MusicDB == nil {
				return services.Wrap(services.ErrValidation, "cli", "chunks",
					fmt.Sprintf("library.source is %q; chunks needs musicdb", lib.Source), nil)
			}

			views := make([]chunkView, 0)
			for i, chunk := range lib.MusicDB.Chunks() {
				base := chunk.Base()
				if tag != "" && string(base.Tag) != tag {
					continue
				}
				views = append(views, chunkView{
					Index:  i,
					Offset: base.Offset,
					Tag:    string(base.Tag),
					Length: base.Length,
					Kind:   chunkKind(chunk),
					Detail: chunk.String(),
				})
				if limit > 0 && len(views) >= limit {
					break
				}
			}

			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{
					strconv.Itoa(v.Index),
					fmt.Sprintf("0x%x", v.Offset),
					v.Tag,
					v.Kind,
					v.Detail,
				})
			}
			columns := []column{
				{Header: "#", Align: alignRight},
				{Header: "Offset", Align: alignRight},
				{Header: "Tag"},
				{Header: "Kind"},
				{Header: "Detail", Width: 100},
			}
			return writeTableOrJSON(cmd, ctx.JSONMode(), views, columns, rows, "No chunks")
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many chunks (0 for all)")
	cmd.Flags().StringVar(&tag, "tag", "", "Only show chunks with this four letter tag")
	return cmd
}

// chunkKind names the decoded chunk type without the package qualifier.
func chunkKind(chunk musicdb.Chunk) string {
	name := fmt.Sprintf("%T", chunk)
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

type trackView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	AlbumArtist string `json:"album_artist"`
	DurationMS  uint32 `json:"duration_ms"`
	Location    string `json:"location"`
}

func newTracksCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "tracks",
		Short: "List library tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := ctx.openLibrary(cmd)
			if err != nil {
				return err
			}

			views := make([]trackView, 0, lib.TrackCount())
			rows := make([][]string, 0, lib.TrackCount())
			for id, track := range lib.Tracks() {
				views = append(views, trackView{
					ID:          id,
					Name:        track.Name,
					Artist:      track.Artist,
					Album:       track.Album,
					AlbumArtist: track.AlbumArtist,
					DurationMS:  track.Duration,
					Location:    track.Location,
				})
				rows = append(rows, []string{
					id,
					track.Name,
					track.Artist,
					track.Album,
					formatMillis(uint64(track.Duration)),
					track.Location,
				})
				if limit > 0 && len(views) >= limit {
					break
				}
			}
			columns := []column{
				{Header: "ID"},
				{Header: "Title", Width: 40},
				{Header: "Artist", Width: 30},
				{Header: "Album", Width: 30},
				{Header: "Length", Align: alignRight},
				{Header: "Location", Width: 60},
			}
			return writeTableOrJSON(cmd, ctx.JSONMode(), views, columns, rows, "No tracks")
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many tracks (0 for all)")
	return cmd
}

type playlistView struct {
	Name       string   `json:"name"`
	TrackCount int      `json:"track_count"`
	DurationMS uint64   `json:"duration_ms"`
	Tracks     []string `json:"tracks,omitempty"`
}

func newPlaylistsCommand(ctx *commandContext) *cobra.Command {
	var withTracks bool

	cmd := &cobra.Command{
		Use:   "playlists",
		Short: "List library playlists",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := ctx.openLibrary(cmd)
			if err != nil {
				return err
			}

			views := make([]playlistView, 0)
			rows := make([][]string, 0)
			for pl, err := range lib.Playlists() {
				if err != nil {
					return services.Wrap(services.ErrValidation, "cli", "read playlists", lib.Path, err)
				}
				view := playlistView{
					Name:       pl.Name,
					TrackCount: len(pl.Tracks),
					DurationMS: pl.TotalDuration(),
				}
				if withTracks {
					for _, track := range pl.Tracks {
						view.Tracks = append(view.Tracks, track.Location)
					}
				}
				views = append(views, view)
				rows = append(rows, []string{
					pl.Name,
					strconv.Itoa(view.TrackCount),
					formatMillis(view.DurationMS),
				})
			}

			if withTracks && !ctx.JSONMode() {
				return renderPlaylistTracks(cmd, views)
			}
			columns := []column{
				{Header: "Playlist", Width: 50},
				{Header: "Tracks", Align: alignRight},
				{Header: "Length", Align: alignRight},
			}
			return writeTableOrJSON(cmd, ctx.JSONMode(), views, columns, rows, "No playlists")
		},
	}

	cmd.Flags().BoolVar(&withTracks, "tracks", false, "Include the track locations of every playlist")
	return cmd
}

func renderPlaylistTracks(cmd *cobra.Command, views []playlistView) error {
	out := cmd.OutOrStdout()
	if len(views) == 0 {
		fmt.Fprintln(out, "No playlists")
		return nil
	}
	for i, view := range views {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s (%d tracks, %s)\n", view.Name, view.TrackCount, formatMillis(view.DurationMS))
		for _, location := range view.Tracks {
			fmt.Fprintf(out, "  %s\n", location)
		}
	}
	return nil
}

// formatMillis renders a millisecond count as m:ss or h:mm:ss.
func formatMillis(ms uint64) string {
	d := time.Duration(ms) * time.Millisecond
	hours := int(d / time.Hour)
	minutes := int(d/time.Minute) % 60
	seconds := int(d/time.Second) % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
