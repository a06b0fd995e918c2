package musicdb

import (
	"fmt"
	"iter"
	"log/slog"

	"tunesync/internal/logging"
	"tunesync/internal/playlist"
)

// Library is a decoded musicdb: the chunk sequence plus the track table
// built from it. It satisfies playlist.Reader.
type Library struct {
	chunks []Chunk
	tracks map[string]*playlist.Track
	order  []string
	logger *slog.Logger
}

var _ playlist.Reader = (*Library)(nil)

// NewLibrary builds the track table from chunks. Playlists are assembled
// later, on demand, by PlaylistIterator.
func NewLibrary(chunks []Chunk, opts ...Option) (*Library, error) {
	o := newOptions(opts)
	l := &Library{
		chunks: chunks,
		tracks: make(map[string]*playlist.Track),
		logger: o.logger,
	}
	if err := l.buildTracks(); err != nil {
		return nil, err
	}
	l.logger.Debug("track table built", logging.Int("track_count", len(l.order)))
	return l, nil
}

// Chunks returns the decoded chunk sequence. Callers must not modify it.
func (l *Library) Chunks() []Chunk {
	return l.chunks
}

// TrackCount returns the number of tracks in the table.
func (l *Library) TrackCount() int {
	return len(l.order)
}

// TrackByID returns the track with the given id.
func (l *Library) TrackByID(id string) (*playlist.Track, error) {
	track, ok := l.tracks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %q", ErrLookup, playlist.ErrTrackNotFound, id)
	}
	return track, nil
}

// Tracks yields track ids and tracks in table order.
func (l *Library) Tracks() iter.Seq2[string, *playlist.Track] {
	return func(yield func(string, *playlist.Track) bool) {
		for _, id := range l.order {
			if !yield(id, l.tracks[id]) {
				return
			}
		}
	}
}

// Playlists yields the library's playlists. See PlaylistIterator for the
// validation rules.
func (l *Library) Playlists() iter.Seq2[*playlist.Playlist, error] {
	return l.PlaylistIterator().All()
}

// PlaylistIterator returns a fresh iterator over the playlist section.
func (l *Library) PlaylistIterator() *PlaylistIterator {
	return &PlaylistIterator{lib: l}
}

// findSection returns the index of the first Container with the given
// subtype and checks that it is followed by another chunk.
func findSection(chunks []Chunk, subtype uint32) (int, error) {
	for i, c := range chunks {
		container, ok := c.(*Container)
		if !ok || container.Subtype != subtype {
			continue
		}
		if i+1 >= len(chunks) {
			return 0, fmt.Errorf("%w: container subtype %d at 0x%x has no table marker", ErrMissingSection, subtype, container.Offset)
		}
		return i, nil
	}
	return 0, fmt.Errorf("%w: no container with subtype %d", ErrMissingSection, subtype)
}

type trackBuilder struct {
	id             string
	offset         int
	track          *playlist.Track
	albumArtistSet bool
}

func (l *Library) buildTracks() error {
	start, err := findSection(l.chunks, ContainerTracks)
	if err != nil {
		return err
	}
	table, ok := l.chunks[start+1].(*TrackTable)
	if !ok {
		next := l.chunks[start+1].Base()
		return chunkError(ErrUnexpectedChunk, next.Tag, next.Offset, "expected %s after track container", TagTrackTable)
	}

	var current *trackBuilder
	finalize := func() error {
		if current == nil {
			return nil
		}
		if !current.albumArtistSet {
			current.track.AlbumArtist = current.track.Artist
		}
		if _, dup := l.tracks[current.id]; dup {
			return fmt.Errorf("%w: duplicate track id %q at 0x%x", ErrValidation, current.id, current.offset)
		}
		l.tracks[current.id] = current.track
		l.order = append(l.order, current.id)
		current = nil
		return nil
	}
	open := func(c Chunk) (*trackBuilder, error) {
		if current == nil {
			base := c.Base()
			return nil, chunkError(ErrUnexpectedChunk, base.Tag, base.Offset, "track attribute before any %s", TagTrackRecord)
		}
		return current, nil
	}

	closed := false
loop:
	for _, c := range l.chunks[start+2:] {
		switch c := c.(type) {
		case *Container:
			closed = true
			break loop
		case *TrackRecord:
			if err := finalize(); err != nil {
				return err
			}
			current = &trackBuilder{id: c.TrackID, offset: c.Offset, track: &playlist.Track{}}
		case *NumericAttribute:
			b, err := open(c)
			if err != nil {
				return err
			}
			b.track.Duration = c.DurationMS
		case *URIAttribute:
			b, err := open(c)
			if err != nil {
				return err
			}
			path, err := c.Path()
			if err != nil {
				return err
			}
			b.track.Location = path
		case *StringAttribute:
			switch c.Subtype {
			case SubtypeTrackTitle, SubtypeArtist, SubtypeAlbum, SubtypeAlbumArtist:
			default:
				continue
			}
			b, err := open(c)
			if err != nil {
				return err
			}
			switch c.Subtype {
			case SubtypeTrackTitle:
				b.track.Name = c.Value
			case SubtypeArtist:
				b.track.Artist = c.Value
			case SubtypeAlbum:
				b.track.Album = c.Value
			case SubtypeAlbumArtist:
				b.track.AlbumArtist = c.Value
				b.albumArtistSet = true
			}
		}
	}
	if !closed {
		return fmt.Errorf("%w: track section at 0x%x has no closing %s", ErrMissingSection, l.chunks[start].Base().Offset, TagContainer)
	}
	if err := finalize(); err != nil {
		return err
	}

	if uint32(len(l.order)) != table.TrackCount {
		return fmt.Errorf("%w: track table declares %d tracks, parsed %d", ErrValidation, table.TrackCount, len(l.order))
	}
	return nil
}
