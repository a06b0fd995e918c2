package playlist

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"
)

// ErrTrackNotFound reports a track id that a reader does not know.
var ErrTrackNotFound = errors.New("track not found")

// Track is one library entry. Readers hand out pointers into their own track
// table; callers must treat the values as read-only.
type Track struct {
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	AlbumArtist string `json:"album_artist"`
	Location    string `json:"location"`
	// Duration in milliseconds.
	Duration uint32 `json:"duration_ms"`
}

// Length returns the track duration as a time.Duration.
func (t *Track) Length() time.Duration {
	if t == nil {
		return 0
	}
	return time.Duration(t.Duration) * time.Millisecond
}

func (t *Track) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.AlbumArtist + " - " + t.Album + " - " + t.Name + " - " + t.Location
}

// Playlist is a named, ordered list of tracks.
type Playlist struct {
	Name   string   `json:"name"`
	Tracks []*Track `json:"tracks"`
}

// TotalDuration sums the track durations in milliseconds.
func (p *Playlist) TotalDuration() uint64 {
	if p == nil {
		return 0
	}
	var total uint64
	for _, track := range p.Tracks {
		if track != nil {
			total += uint64(track.Duration)
		}
	}
	return total
}

// Reader is the surface shared by every library source.
type Reader interface {
	// TrackByID resolves a track id. Unknown ids return an error wrapping
	// ErrTrackNotFound.
	TrackByID(id string) (*Track, error)
	// Playlists yields playlists in library order. The sequence can be
	// consumed once; a non-nil error ends it.
	Playlists() iter.Seq2[*Playlist, error]
}

// LocationPrefix is the only URI form accepted for track locations.
const LocationPrefix = "file://localhost/"

// ErrBadLocation reports a track location URI that cannot be turned into a
// file path.
var ErrBadLocation = errors.New("bad track location")

// ParseLocation strips LocationPrefix from uri and percent-decodes the rest.
// A "%" that does not start a valid escape is kept as is. Paths gain a
// leading "/" unless they start with a drive letter ("C:").
func ParseLocation(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, LocationPrefix)
	if !ok {
		return "", fmt.Errorf("%w: uri %q does not start with %q", ErrBadLocation, uri, LocationPrefix)
	}
	decoded := unescapePath(rest)
	if isDrivePath(decoded) {
		return decoded, nil
	}
	return "/" + decoded, nil
}

// unescapePath decodes %XX sequences and leaves malformed ones untouched.
// "+" is not treated as a space.
func unescapePath(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func isDrivePath(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
