package itunesxml

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"howett.net/plist"

	"tunesync/internal/logging"
	"tunesync/internal/playlist"
)

var (
	// ErrFormat reports a file that is not an iTunes library property list.
	ErrFormat = errors.New("itunes xml: malformed library")
	// ErrMalformedTrack reports a track entry missing a usable location.
	ErrMalformedTrack = errors.New("itunes xml: malformed track")
	// ErrMissingFile reports a track whose file is absent while files are required.
	ErrMissingFile = errors.New("itunes xml: track file missing")
)

type plistLibrary struct {
	MajorVersion int                   `plist:"Major Version"`
	MinorVersion int                   `plist:"Minor Version"`
	Tracks       map[string]plistTrack `plist:"Tracks"`
	Playlists    []plistPlaylist       `plist:"Playlists"`
}

type plistTrack struct {
	TrackID     int64  `plist:"Track ID"`
	Name        string `plist:"Name"`
	Artist      string `plist:"Artist"`
	Album       string `plist:"Album"`
	AlbumArtist string `plist:"Album Artist"`
	Location    string `plist:"Location"`
	TotalTime   int64  `plist:"Total Time"`
}

type plistPlaylist struct {
	Name   string      `plist:"Name"`
	Master bool        `plist:"Master"`
	Folder bool        `plist:"Folder"`
	Items  []plistItem `plist:"Playlist Items"`
}

type plistItem struct {
	TrackID int64 `plist:"Track ID"`
}

// Library is a decoded iTunes XML library.
type Library struct {
	path         string
	tracks       map[string]plistTrack
	playlists    []plistPlaylist
	resolved     map[string]*playlist.Track
	requireFiles bool
	logger       *slog.Logger
}

var _ playlist.Reader = (*Library)(nil)

// Option configures a Library.
type Option func(*Library)

// WithRequireFiles makes track resolution fail when the file a track points
// at does not exist.
func WithRequireFiles(require bool) Option {
	return func(l *Library) { l.requireFiles = require }
}

// WithLogger routes skip warnings to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Load reads and decodes the library at path.
func Load(path string, opts ...Option) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	lib, err := Parse(bytes.NewReader(data), opts...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	lib.path = path
	lib.logger.Info("itunes library loaded",
		logging.String(logging.FieldLibraryPath, path),
		logging.Int("track_count", lib.TrackCount()),
		logging.Int("playlist_count", len(lib.playlists)),
	)
	return lib, nil
}

// Parse decodes an XML property list from r.
func Parse(r io.ReadSeeker, opts ...Option) (*Library, error) {
	var raw plistLibrary
	if err := plist.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if raw.Tracks == nil {
		return nil, fmt.Errorf("%w: no Tracks dictionary", ErrFormat)
	}

	lib := &Library{
		tracks:    raw.Tracks,
		playlists: raw.Playlists,
		resolved:  make(map[string]*playlist.Track),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(lib)
		}
	}
	lib.logger = logging.NewComponentLogger(lib.logger, "itunesxml")
	return lib, nil
}

// Path returns the file the library was loaded from, if any.
func (l *Library) Path() string { return l.path }

// TrackCount returns the number of track entries in the library.
func (l *Library) TrackCount() int { return len(l.tracks) }

// TrackByID resolves a track by its decimal id.
func (l *Library) TrackByID(id string) (*playlist.Track, error) {
	if track, ok := l.resolved[id]; ok {
		return track, nil
	}
	raw, ok := l.tracks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", playlist.ErrTrackNotFound, id)
	}

	location, err := playlist.ParseLocation(raw.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: track %s: %w", ErrMalformedTrack, id, err)
	}
	if l.requireFiles {
		if info, statErr := os.Stat(location); statErr != nil || info.IsDir() {
			return nil, fmt.Errorf("%w: track %s: %s", ErrMissingFile, id, location)
		}
	}
	if raw.TotalTime < 0 {
		return nil, fmt.Errorf("%w: track %s: negative total time %d", ErrMalformedTrack, id, raw.TotalTime)
	}

	track := &playlist.Track{
		Name:        raw.Name,
		Artist:      raw.Artist,
		Album:       raw.Album,
		AlbumArtist: raw.AlbumArtist,
		Location:    location,
		Duration:    uint32(raw.TotalTime),
	}
	if track.AlbumArtist == "" {
		track.AlbumArtist = track.Artist
	}
	l.resolved[id] = track
	return track, nil
}

// Tracks yields resolvable tracks in ascending id order. Entries that fail
// to resolve are logged at debug level and left out.
func (l *Library) Tracks() iter.Seq2[string, *playlist.Track] {
	return func(yield func(string, *playlist.Track) bool) {
		ids := make([]string, 0, len(l.tracks))
		for id := range l.tracks {
			ids = append(ids, id)
		}
		slices.SortFunc(ids, compareIDs)
		for _, id := range ids {
			track, err := l.TrackByID(id)
			if err != nil {
				l.logger.Debug("track left out", logging.String("track_id", id), logging.Error(err))
				continue
			}
			if !yield(id, track) {
				return
			}
		}
	}
}

// compareIDs orders decimal ids numerically, falling back to text order for
// keys that are not numbers.
func compareIDs(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return cmp.Compare(na, nb)
	}
	return strings.Compare(a, b)
}

// Playlists yields every user playlist in file order. The library master
// playlist and folders are not playlists of tracks and are left out.
// Playlists with unresolvable items are logged and skipped; the sequence
// itself never yields an error.
func (l *Library) Playlists() iter.Seq2[*playlist.Playlist, error] {
	return func(yield func(*playlist.Playlist, error) bool) {
		for _, raw := range l.playlists {
			if raw.Master || raw.Folder {
				continue
			}
			pl, err := l.resolvePlaylist(raw)
			if err != nil {
				logging.WarnWithContext(l.logger, "skipping playlist", "itunes_playlist_skipped",
					logging.String(logging.FieldPlaylist, raw.Name),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "fix or remove the referenced tracks in the library"),
				)
				continue
			}
			if !yield(pl, nil) {
				return
			}
		}
	}
}

func (l *Library) resolvePlaylist(raw plistPlaylist) (*playlist.Playlist, error) {
	if strings.TrimSpace(raw.Name) == "" {
		return nil, fmt.Errorf("%w: playlist without a name", ErrFormat)
	}
	pl := &playlist.Playlist{
		Name:   raw.Name,
		Tracks: make([]*playlist.Track, 0, len(raw.Items)),
	}
	for _, item := range raw.Items {
		track, err := l.TrackByID(strconv.FormatInt(item.TrackID, 10))
		if err != nil {
			return nil, err
		}
		pl.Tracks = append(pl.Tracks, track)
	}
	return pl, nil
}
