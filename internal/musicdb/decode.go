package musicdb

import (
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"
)

// Payload offsets of the fixed fields each decoder reads.
const (
	containerHeaderSize = 8

	trackIDOffset     = 8
	trackIDSize       = 8
	trackNumberOffset = 152

	playlistTrackCountOffset = 8

	attrValueLengthOffset = 8
	attrValueOffset       = 20
	numericDurationOffset = 160
	refMarkerOffset       = 4
	refTrackIDOffset      = 24
)

const playlistRefMarker = "ipfa"

var utf16Decoding = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)

func need(s *Section, size int) error {
	if len(s.Data) < size {
		return chunkError(ErrTruncated, s.Tag, s.Offset, "payload is %d bytes, decoder needs %d", len(s.Data), size)
	}
	return nil
}

func u32(data []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(data[offset : offset+4])
}

// decodeSection turns a length-prefixed section into its typed chunk.
func decodeSection(s *Section, o options) (Chunk, error) {
	switch s.Tag {
	case TagContainer:
		if err := need(s, containerHeaderSize); err != nil {
			return nil, err
		}
		return &Container{Section: *s, AssociatedLength: u32(s.Data, 0), Subtype: u32(s.Data, 4)}, nil
	case TagTrackTable:
		if err := need(s, 4); err != nil {
			return nil, err
		}
		return &TrackTable{Section: *s, TrackCount: u32(s.Data, 0)}, nil
	case TagTrackRecord:
		if err := need(s, trackNumberOffset+2); err != nil {
			return nil, err
		}
		return &TrackRecord{
			Section:     *s,
			TrackID:     o.ids.Format(s.Data[trackIDOffset : trackIDOffset+trackIDSize]),
			TrackNumber: binary.LittleEndian.Uint16(s.Data[trackNumberOffset : trackNumberOffset+2]),
		}, nil
	case TagPlaylistTable:
		if err := need(s, 4); err != nil {
			return nil, err
		}
		return &PlaylistTable{Section: *s, PlaylistCount: u32(s.Data, 0)}, nil
	case TagPlaylistRecord:
		if err := need(s, playlistTrackCountOffset+4); err != nil {
			return nil, err
		}
		return &PlaylistRecord{Section: *s, TrackCount: u32(s.Data, playlistTrackCountOffset)}, nil
	default:
		return s, nil
	}
}

// decodeAttribute picks the boma sub-decoder for a's subtype.
func decodeAttribute(a *Attribute, o options) (Chunk, error) {
	if IsStringSubtype(a.Subtype) {
		value, err := attributeValue(a)
		if err != nil {
			return nil, err
		}
		if len(value)%2 != 0 {
			return nil, chunkError(ErrFormat, a.Tag, a.Offset, "utf-16 value has odd length %d", len(value))
		}
		text, err := utf16Decoding.NewDecoder().Bytes(value)
		if err != nil {
			return nil, chunkError(ErrFormat, a.Tag, a.Offset, "decode utf-16: %v", err)
		}
		return &StringAttribute{Attribute: *a, Value: string(text)}, nil
	}

	switch a.Subtype {
	case SubtypeNumerics:
		if err := need(&a.Section, numericDurationOffset+4); err != nil {
			return nil, err
		}
		return &NumericAttribute{Attribute: *a, DurationMS: u32(a.Data, numericDurationOffset)}, nil
	case SubtypeURI:
		value, err := attributeValue(a)
		if err != nil {
			return nil, err
		}
		return &URIAttribute{Attribute: *a, URI: string(value)}, nil
	case SubtypePlaylistTrack:
		if err := need(&a.Section, refTrackIDOffset+trackIDSize); err != nil {
			return nil, err
		}
		if marker := string(a.Data[refMarkerOffset : refMarkerOffset+4]); marker != playlistRefMarker {
			return nil, chunkError(ErrBadMarker, a.Tag, a.Offset, "expected %q, got %q", playlistRefMarker, marker)
		}
		return &PlaylistTrackRef{
			Attribute: *a,
			TrackID:   o.ids.Format(a.Data[refTrackIDOffset : refTrackIDOffset+trackIDSize]),
		}, nil
	default:
		return a, nil
	}
}

// attributeValue returns the length-prefixed value bytes of a string or URI
// attribute.
func attributeValue(a *Attribute) ([]byte, error) {
	if err := need(&a.Section, attrValueOffset); err != nil {
		return nil, err
	}
	size := int(u32(a.Data, attrValueLengthOffset))
	if err := need(&a.Section, attrValueOffset+size); err != nil {
		return nil, err
	}
	return a.Data[attrValueOffset : attrValueOffset+size], nil
}
