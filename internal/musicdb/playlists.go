package musicdb

import (
	"fmt"
	"io"
	"iter"

	"tunesync/internal/logging"
	"tunesync/internal/playlist"
)

// PlaylistIterator assembles playlists one at a time from the playlist
// section. Each playlist is checked against its declared track count and
// every reference is resolved against the track table before it is
// returned. The playlist table's declared count is checked once the section
// is exhausted, so a mismatch surfaces only after the last playlist.
//
// Errors are sticky: once Next fails it keeps returning the same error.
type PlaylistIterator struct {
	lib *Library

	started  bool
	ended    bool
	pos      int
	declared uint32
	yielded  uint32
	pending  *pendingPlaylist
	err      error
}

type pendingPlaylist struct {
	record *PlaylistRecord
	name   string
	named  bool
	ids    []string
}

// Next returns the next playlist, or io.EOF once the section is exhausted
// and the declared count matched.
func (it *PlaylistIterator) Next() (*playlist.Playlist, error) {
	if it.err != nil {
		return nil, it.err
	}
	pl, err := it.step()
	if err != nil {
		it.err = err
		return nil, err
	}
	return pl, nil
}

// All adapts the iterator to a range-over-func sequence. A failure is
// yielded once as a nil playlist with the error, then the sequence ends.
func (it *PlaylistIterator) All() iter.Seq2[*playlist.Playlist, error] {
	return func(yield func(*playlist.Playlist, error) bool) {
		for {
			pl, err := it.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(pl, nil) {
				return
			}
		}
	}
}

func (it *PlaylistIterator) start() error {
	it.started = true
	chunks := it.lib.chunks
	idx, err := findSection(chunks, ContainerPlaylists)
	if err != nil {
		return err
	}
	table, ok := chunks[idx+1].(*PlaylistTable)
	if !ok {
		next := chunks[idx+1].Base()
		return chunkError(ErrUnexpectedChunk, next.Tag, next.Offset, "expected %s after playlist container", TagPlaylistTable)
	}
	it.declared = table.PlaylistCount
	it.pos = idx + 2
	return nil
}

func (it *PlaylistIterator) step() (*playlist.Playlist, error) {
	if !it.started {
		if err := it.start(); err != nil {
			return nil, err
		}
	}

	chunks := it.lib.chunks
	for !it.ended {
		if it.pos >= len(chunks) {
			it.ended = true
			break
		}
		c := chunks[it.pos]
		it.pos++

		switch c := c.(type) {
		case *Container:
			it.ended = true
		case *PlaylistRecord:
			prev := it.pending
			it.pending = &pendingPlaylist{record: c}
			if prev != nil {
				return it.complete(prev)
			}
		case *StringAttribute:
			if c.Subtype != SubtypePlaylistName {
				return nil, chunkError(ErrFormat, c.Tag, c.Offset, "unexpected string attribute %q in playlist section", c.Label())
			}
			if it.pending == nil {
				return nil, chunkError(ErrUnexpectedChunk, c.Tag, c.Offset, "playlist name before any %s", TagPlaylistRecord)
			}
			it.pending.name = c.Value
			it.pending.named = true
		case *PlaylistTrackRef:
			if it.pending == nil {
				return nil, chunkError(ErrUnexpectedChunk, c.Tag, c.Offset, "playlist track before any %s", TagPlaylistRecord)
			}
			it.pending.ids = append(it.pending.ids, c.TrackID)
		}
	}

	if it.pending != nil {
		prev := it.pending
		it.pending = nil
		return it.complete(prev)
	}
	if it.yielded != it.declared {
		return nil, fmt.Errorf("%w: playlist table declares %d playlists, parsed %d", ErrValidation, it.declared, it.yielded)
	}
	return nil, io.EOF
}

// complete validates p and resolves its track references.
func (it *PlaylistIterator) complete(p *pendingPlaylist) (*playlist.Playlist, error) {
	if !p.named {
		return nil, chunkError(ErrFormat, p.record.Tag, p.record.Offset, "playlist has no name")
	}
	if uint32(len(p.ids)) != p.record.TrackCount {
		return nil, fmt.Errorf("%w: playlist %q declares %d tracks, parsed %d",
			ErrValidation, p.name, p.record.TrackCount, len(p.ids))
	}

	pl := &playlist.Playlist{Name: p.name, Tracks: make([]*playlist.Track, 0, len(p.ids))}
	for _, id := range p.ids {
		track, err := it.lib.TrackByID(id)
		if err != nil {
			return nil, fmt.Errorf("playlist %q: %w", p.name, err)
		}
		pl.Tracks = append(pl.Tracks, track)
	}
	it.yielded++
	it.lib.logger.Debug("playlist assembled",
		logging.String("playlist", pl.Name),
		logging.Int("track_count", len(pl.Tracks)),
	)
	return pl, nil
}
