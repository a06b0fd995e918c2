package zpl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"tunesync/internal/playlist"
	"tunesync/internal/textutil"
)

// Extension is the file extension of rendered playlists.
const Extension = ".zpl"

// DefaultGenerator is the generator string Groove Music writes itself.
const DefaultGenerator = "Entertainment Platform -- 10.22031.1009.0"

// Options controls rendering.
type Options struct {
	// Generator fills the generator meta element. Empty uses DefaultGenerator.
	Generator string
}

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// Escape escapes s for use in XML text and double-quoted attribute values.
func Escape(s string) string {
	return attrEscaper.Replace(s)
}

// Render writes pl as a zpl document. Nil tracks are skipped.
func Render(w io.Writer, pl *playlist.Playlist, opts Options) error {
	if pl == nil {
		return fmt.Errorf("zpl: nil playlist")
	}
	generator := opts.Generator
	if strings.TrimSpace(generator) == "" {
		generator = DefaultGenerator
	}

	tracks := make([]*playlist.Track, 0, len(pl.Tracks))
	for _, track := range pl.Tracks {
		if track != nil {
			tracks = append(tracks, track)
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "<?zpl version=\"2.0\"?>\n<smil>\n  <head>\n")
	fmt.Fprintf(bw, "    <meta name=\"generator\" content=\"%s\" />\n", Escape(generator))
	fmt.Fprintf(bw, "    <meta name=\"itemCount\" content=\"%d\" />\n", len(tracks))
	fmt.Fprintf(bw, "    <meta name=\"totalDuration\" content=\"%d\" />\n", pl.TotalDuration())
	fmt.Fprintf(bw, "    <title>%s</title>\n", Escape(pl.Name))
	fmt.Fprint(bw, "  </head>\n  <body>\n    <seq>\n")
	for _, track := range tracks {
		fmt.Fprintf(bw,
			"      <media src=\"%s\" albumTitle=\"%s\" albumArtist=\"%s\" trackTitle=\"%s\" trackArtist=\"%s\" duration=\"%d\" />\n",
			Escape(track.Location),
			Escape(track.Album),
			Escape(track.AlbumArtist),
			Escape(track.Name),
			Escape(track.Artist),
			track.Duration,
		)
	}
	fmt.Fprint(bw, "    </seq>\n  </body>\n</smil>\n")
	return bw.Flush()
}

// FileName turns a playlist name into a safe file name with the zpl
// extension. Names that sanitize to nothing become "untitled.zpl".
func FileName(name string) string {
	base := textutil.SanitizeFileName(name)
	if base == "" {
		base = "untitled"
	}
	return base + Extension
}
