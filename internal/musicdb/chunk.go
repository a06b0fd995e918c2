package musicdb

import (
	"fmt"

	"tunesync/internal/playlist"
)

// Tag is the four-character code that opens every chunk.
type Tag string

const (
	TagEnvelope       Tag = "hfma"
	TagContainer      Tag = "hsma"
	TagAttribute      Tag = "boma"
	TagTrackTable     Tag = "ltma"
	TagTrackRecord    Tag = "itma"
	TagPlaylistTable  Tag = "lPma"
	TagPlaylistRecord Tag = "lpma"
	TagLibraryMaster  Tag = "plma"
	TagAlbumTable     Tag = "lama"
	TagAlbumRecord    Tag = "iama"
	TagArtistTable    Tag = "lAma"
	TagArtistRecord   Tag = "iAma"
)

// Container subtypes.
const (
	ContainerTracks    uint32 = 1
	ContainerPlaylists uint32 = 2
)

var containerSubtypes = map[uint32]string{
	1: "track master and associated data",
	2: "playlist data",
	3: "playlist master or inner envelope",
	4: "album table and associated data",
	5: "artist table and associated data",
	6: "library master and associated data",
}

// Attribute subtypes with a dedicated decoder. String subtypes live in the
// label table (labels.go).
const (
	SubtypeNumerics      uint32 = 0x01
	SubtypeURI           uint32 = 0x0B
	SubtypePlaylistTrack uint32 = 0xCE
)

// LocationPrefix is the only URI form accepted for track locations.
const LocationPrefix = playlist.LocationPrefix

// Chunk is one decoded record from the chunk stream. The set of
// implementations is closed; switch on the concrete type.
type Chunk interface {
	Base() *Section
	fmt.Stringer
	chunk()
}

// Section carries the fields every chunk shares. Chunks with an opaque tag
// are returned as a bare *Section.
type Section struct {
	Tag    Tag
	Offset int
	// Length is the length declared in the chunk header.
	Length uint32
	// Data is the payload that follows the tag-specific header. It aliases
	// the decoded buffer.
	Data []byte
}

func (s *Section) Base() *Section { return s }

func (*Section) chunk() {}

func (s *Section) String() string {
	return fmt.Sprintf("Section(tag=%s, offset=0x%x, length=0x%x)", s.Tag, s.Offset, s.Length)
}

// Container marks the start of a logical section.
type Container struct {
	Section
	AssociatedLength uint32
	Subtype          uint32
}

func (c *Container) String() string {
	label, ok := containerSubtypes[c.Subtype]
	if !ok {
		label = fmt.Sprintf("0x%x", c.Subtype)
	}
	return fmt.Sprintf("Container(offset=0x%x, length=0x%x, associated_length=0x%x, subtype=%q)",
		c.Offset, c.Length, c.AssociatedLength, label)
}

// Attribute is a boma record whose subtype carries no known value layout.
type Attribute struct {
	Section
	Subtype uint32
}

func (a *Attribute) String() string {
	return fmt.Sprintf("Attribute(offset=0x%x, length=0x%x, subtype=0x%x)", a.Offset, a.Length, a.Subtype)
}

// StringAttribute is a boma record carrying UTF-16 text.
type StringAttribute struct {
	Attribute
	Value string
}

// Label names the field the string belongs to.
func (s *StringAttribute) Label() string {
	return stringLabels[s.Subtype]
}

func (s *StringAttribute) String() string {
	return fmt.Sprintf("StringAttribute(offset=0x%x, length=0x%x, label=%q, value=%q)",
		s.Offset, s.Length, s.Label(), s.Value)
}

// URIAttribute is a boma record carrying a track location URI.
type URIAttribute struct {
	Attribute
	URI string
}

// Path strips LocationPrefix and percent-decodes the remainder.
func (u *URIAttribute) Path() (string, error) {
	path, err := playlist.ParseLocation(u.URI)
	if err != nil {
		return "", chunkError(ErrBadLocation, TagAttribute, u.Offset, "%v", err)
	}
	return path, nil
}

func (u *URIAttribute) String() string {
	return fmt.Sprintf("URIAttribute(offset=0x%x, length=0x%x, uri=%q)", u.Offset, u.Length, u.URI)
}

// NumericAttribute is the boma record holding a track's numeric fields.
type NumericAttribute struct {
	Attribute
	DurationMS uint32
}

func (n *NumericAttribute) String() string {
	return fmt.Sprintf("NumericAttribute(offset=0x%x, length=0x%x, duration_ms=%d)", n.Offset, n.Length, n.DurationMS)
}

// PlaylistTrackRef is the boma record that adds a track to a playlist.
type PlaylistTrackRef struct {
	Attribute
	TrackID string
}

func (p *PlaylistTrackRef) String() string {
	return fmt.Sprintf("PlaylistTrackRef(offset=0x%x, length=0x%x, track_id=%q)", p.Offset, p.Length, p.TrackID)
}

// TrackTable declares how many track records follow.
type TrackTable struct {
	Section
	TrackCount uint32
}

func (t *TrackTable) String() string {
	return fmt.Sprintf("TrackTable(offset=0x%x, length=0x%x, track_count=%d)", t.Offset, t.Length, t.TrackCount)
}

// TrackRecord opens a track; attributes up to the next record belong to it.
type TrackRecord struct {
	Section
	TrackID     string
	TrackNumber uint16
}

func (t *TrackRecord) String() string {
	return fmt.Sprintf("TrackRecord(offset=0x%x, length=0x%x, track_id=%q, track_no=%d)",
		t.Offset, t.Length, t.TrackID, t.TrackNumber)
}

// PlaylistTable declares how many playlist records follow.
type PlaylistTable struct {
	Section
	PlaylistCount uint32
}

func (p *PlaylistTable) String() string {
	return fmt.Sprintf("PlaylistTable(offset=0x%x, length=0x%x, playlist_count=%d)", p.Offset, p.Length, p.PlaylistCount)
}

// PlaylistRecord opens a playlist and declares its track count.
type PlaylistRecord struct {
	Section
	TrackCount uint32
}

func (p *PlaylistRecord) String() string {
	return fmt.Sprintf("PlaylistRecord(offset=0x%x, length=0x%x, track_count=%d)", p.Offset, p.Length, p.TrackCount)
}
