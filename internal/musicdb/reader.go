package musicdb

import "encoding/binary"

const (
	tagSize           = 4
	sectionHeaderSize = 8
	attrHeaderSize    = 16
)

// ReadChunks walks buf from the start and decodes every chunk up to the end
// of the buffer or the first tag it does not recognize. Running into an
// unrecognized tag, or into bytes that are not a tag at all, ends the walk
// without error; chunks decoded up to that point are returned.
func ReadChunks(buf []byte, opts ...Option) ([]Chunk, error) {
	o := newOptions(opts)

	var chunks []Chunk
	offset := 0
	for offset+tagSize <= len(buf) {
		raw := buf[offset : offset+tagSize]
		if !isTagText(raw) {
			break
		}
		tag := Tag(raw)

		var (
			chunk Chunk
			next  int
			err   error
		)
		switch tag {
		case TagAttribute:
			chunk, next, err = readAttribute(buf, offset, o)
		case TagContainer, TagTrackTable, TagTrackRecord, TagPlaylistTable, TagPlaylistRecord,
			TagEnvelope, TagLibraryMaster, TagAlbumTable, TagAlbumRecord, TagArtistTable, TagArtistRecord:
			chunk, next, err = readSection(buf, offset, tag, o)
		default:
			return chunks, nil
		}
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, chunk)
		offset = next
	}
	return chunks, nil
}

// isTagText reports whether b can be a tag: printable ASCII only.
func isTagText(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

func readSection(buf []byte, offset int, tag Tag, o options) (Chunk, int, error) {
	if offset+sectionHeaderSize > len(buf) {
		return nil, 0, chunkError(ErrTruncated, tag, offset, "missing length field")
	}
	length := binary.LittleEndian.Uint32(buf[offset+tagSize : offset+sectionHeaderSize])
	if length < sectionHeaderSize {
		return nil, 0, chunkError(ErrFormat, tag, offset, "declared length %d is shorter than the header", length)
	}
	end := offset + int(length)
	if end > len(buf) {
		return nil, 0, chunkError(ErrTruncated, tag, offset, "declared length %d runs past end of buffer (%d)", length, len(buf))
	}
	s := &Section{Tag: tag, Offset: offset, Length: length, Data: buf[offset+sectionHeaderSize : end]}
	chunk, err := decodeSection(s, o)
	if err != nil {
		return nil, 0, err
	}
	return chunk, end, nil
}

func readAttribute(buf []byte, offset int, o options) (Chunk, int, error) {
	if offset+attrHeaderSize > len(buf) {
		return nil, 0, chunkError(ErrTruncated, TagAttribute, offset, "missing attribute header")
	}
	length := binary.LittleEndian.Uint32(buf[offset+8 : offset+12])
	subtype := binary.LittleEndian.Uint32(buf[offset+12 : offset+16])
	if length < attrHeaderSize {
		return nil, 0, chunkError(ErrFormat, TagAttribute, offset, "declared length %d is shorter than the header", length)
	}
	end := offset + int(length)
	if end > len(buf) {
		return nil, 0, chunkError(ErrTruncated, TagAttribute, offset, "declared length %d runs past end of buffer (%d)", length, len(buf))
	}
	a := &Attribute{
		Section: Section{Tag: TagAttribute, Offset: offset, Length: length, Data: buf[offset+attrHeaderSize : end]},
		Subtype: subtype,
	}
	chunk, err := decodeAttribute(a, o)
	if err != nil {
		return nil, 0, err
	}
	return chunk, end, nil
}
