package testsupport

import (
	"bytes"
	"crypto/aes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/klauspost/compress/zlib"
)

// TestKey is the 16-byte AES key used by sealed fixtures.
var TestKey = []byte("0123456789abcdef")

// Attribute subtypes emitted by the builder.
const (
	SubtypeNumerics      = 0x01
	SubtypeTrackTitle    = 0x02
	SubtypeAlbum         = 0x03
	SubtypeArtist        = 0x04
	SubtypeURI           = 0x0B
	SubtypeAlbumArtist   = 0x1B
	SubtypePlaylistName  = 0xC8
	SubtypePlaylistTrack = 0xCE
)

const (
	envelopeLength    = 104
	trackRecordSize   = 156
	numericPayload    = 164
	playlistRefSize   = 32
	stringValueOffset = 20
)

// LibraryBuilder assembles a decoded musicdb buffer chunk by chunk. Methods
// append in call order, so the caller controls chunk sequencing.
type LibraryBuilder struct {
	buf bytes.Buffer
}

// NewLibraryBuilder returns an empty builder.
func NewLibraryBuilder() *LibraryBuilder {
	return &LibraryBuilder{}
}

// Section appends a length-prefixed section with the given tag.
func (b *LibraryBuilder) Section(tag string, payload []byte) *LibraryBuilder {
	b.buf.WriteString(tag)
	writeU32(&b.buf, uint32(8+len(payload)))
	b.buf.Write(payload)
	return b
}

// Container appends an hsma section marker.
func (b *LibraryBuilder) Container(subtype uint32) *LibraryBuilder {
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint32(payload[4:], subtype)
	return b.Section("hsma", payload)
}

// TrackTable appends an ltma marker declaring count tracks.
func (b *LibraryBuilder) TrackTable(count uint32) *LibraryBuilder {
	return b.Section("ltma", u32Payload(count, 8))
}

// Track appends an itma record. The id is stored big-endian so its hex
// rendering reads like the literal.
func (b *LibraryBuilder) Track(id uint64, number uint16) *LibraryBuilder {
	payload := make([]byte, trackRecordSize)
	binary.BigEndian.PutUint64(payload[8:16], id)
	binary.LittleEndian.PutUint16(payload[152:154], number)
	return b.Section("itma", payload)
}

// PlaylistTable appends an lPma marker declaring count playlists.
func (b *LibraryBuilder) PlaylistTable(count uint32) *LibraryBuilder {
	return b.Section("lPma", u32Payload(count, 8))
}

// Playlist appends an lpma record declaring trackCount references.
func (b *LibraryBuilder) Playlist(trackCount uint32) *LibraryBuilder {
	payload := make([]byte, 16)
	binary.LittleEndian.PutUint32(payload[8:12], trackCount)
	return b.Section("lpma", payload)
}

// Attribute appends a boma record with a raw payload.
func (b *LibraryBuilder) Attribute(subtype uint32, payload []byte) *LibraryBuilder {
	b.buf.WriteString("boma")
	writeU32(&b.buf, 0)
	writeU32(&b.buf, uint32(16+len(payload)))
	writeU32(&b.buf, subtype)
	b.buf.Write(payload)
	return b
}

// String appends a UTF-16LE string attribute.
func (b *LibraryBuilder) String(subtype uint32, value string) *LibraryBuilder {
	units := utf16.Encode([]rune(value))
	raw := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(raw[2*i:], u)
	}
	return b.Attribute(subtype, valuePayload(raw))
}

// URI appends a location attribute.
func (b *LibraryBuilder) URI(uri string) *LibraryBuilder {
	return b.Attribute(SubtypeURI, valuePayload([]byte(uri)))
}

// Duration appends the numeric attribute carrying a duration in milliseconds.
func (b *LibraryBuilder) Duration(ms uint32) *LibraryBuilder {
	payload := make([]byte, numericPayload)
	binary.LittleEndian.PutUint32(payload[160:], ms)
	return b.Attribute(SubtypeNumerics, payload)
}

// PlaylistTrack appends a playlist reference to track id.
func (b *LibraryBuilder) PlaylistTrack(id uint64) *LibraryBuilder {
	payload := make([]byte, playlistRefSize)
	copy(payload[4:8], "ipfa")
	binary.BigEndian.PutUint64(payload[24:32], id)
	return b.Attribute(SubtypePlaylistTrack, payload)
}

// Raw appends bytes verbatim.
func (b *LibraryBuilder) Raw(p []byte) *LibraryBuilder {
	b.buf.Write(p)
	return b
}

// Bytes returns a copy of the chunk stream built so far.
func (b *LibraryBuilder) Bytes() []byte {
	return bytes.Clone(b.buf.Bytes())
}

// Decoded returns the buffer the envelope decrypts to: the envelope header
// followed by the chunk stream.
func (b *LibraryBuilder) Decoded(maxCryptSize uint32) []byte {
	if maxCryptSize == 0 {
		maxCryptSize = ^uint32(0)
	}
	compressed := deflate(b.buf.Bytes())
	out := envelopeHeader(uint32(envelopeLength+len(compressed)), maxCryptSize)
	return append(out, b.buf.Bytes()...)
}

// Seal compresses the chunk stream and wraps it in an encrypted envelope.
// A maxCryptSize of zero encrypts every whole block after the header.
func (b *LibraryBuilder) Seal(t testing.TB, key []byte, maxCryptSize uint32) []byte {
	t.Helper()

	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("aes.NewCipher: %v", err)
	}
	if maxCryptSize == 0 {
		maxCryptSize = ^uint32(0)
	}

	compressed := deflate(b.buf.Bytes())
	fileSize := uint32(envelopeLength + len(compressed))
	cryptSize := maxCryptSize
	if maxCryptSize >= fileSize {
		cryptSize = uint32(len(compressed)) - uint32(len(compressed))%aes.BlockSize
	}
	if cryptSize%aes.BlockSize != 0 || int(cryptSize) > len(compressed) {
		t.Fatalf("crypt size %d does not fit a %d byte payload", cryptSize, len(compressed))
	}

	sealed := envelopeHeader(fileSize, maxCryptSize)
	body := bytes.Clone(compressed)
	for i := 0; i < int(cryptSize); i += aes.BlockSize {
		block.Encrypt(body[i:i+aes.BlockSize], body[i:i+aes.BlockSize])
	}
	return append(sealed, body...)
}

// WriteSealed seals the library and writes it to dir/Library.musicdb.
func (b *LibraryBuilder) WriteSealed(t testing.TB, dir string, key []byte) string {
	t.Helper()
	path := filepath.Join(dir, "Library.musicdb")
	if err := os.WriteFile(path, b.Seal(t, key, 0), 0o644); err != nil {
		t.Fatalf("write sealed library: %v", err)
	}
	return path
}

// SampleLibrary returns a library with three tracks and two playlists:
// "Road Trip" (tracks 0xA1, 0xA2) and "Focus" (track 0xA3).
func SampleLibrary() *LibraryBuilder {
	return NewLibraryBuilder().
		Container(1).
		TrackTable(3).
		Track(0xA1, 1).
		String(SubtypeTrackTitle, "Song").
		String(SubtypeArtist, "Artist").
		String(SubtypeAlbum, "Album").
		Duration(1000).
		URI("file://localhost/music/a.mp3").
		Track(0xA2, 2).
		String(SubtypeTrackTitle, "Other Song").
		String(SubtypeArtist, "Guest").
		String(SubtypeAlbumArtist, "Artist").
		String(SubtypeAlbum, "Album").
		Duration(2500).
		URI("file://localhost/music/b%20side.mp3").
		Track(0xA3, 1).
		String(SubtypeTrackTitle, "Calm").
		String(SubtypeArtist, "Quiet <&> Co").
		Duration(60000).
		URI("file://localhost/music/calm.m4a").
		Container(2).
		PlaylistTable(2).
		Playlist(2).
		String(SubtypePlaylistName, "Road Trip").
		PlaylistTrack(0xA1).
		PlaylistTrack(0xA2).
		Playlist(1).
		String(SubtypePlaylistName, "Focus").
		PlaylistTrack(0xA3).
		Container(3)
}

func envelopeHeader(fileSize, maxCryptSize uint32) []byte {
	header := make([]byte, envelopeLength)
	copy(header, "hfma")
	binary.LittleEndian.PutUint32(header[4:8], envelopeLength)
	binary.LittleEndian.PutUint32(header[8:12], fileSize)
	binary.LittleEndian.PutUint32(header[84:88], maxCryptSize)
	return header
}

func deflate(p []byte) []byte {
	var out bytes.Buffer
	w := zlib.NewWriter(&out)
	_, _ = w.Write(p)
	_ = w.Close()
	return out.Bytes()
}

func valuePayload(value []byte) []byte {
	payload := make([]byte, stringValueOffset+len(value))
	binary.LittleEndian.PutUint32(payload[8:12], uint32(len(value)))
	copy(payload[stringValueOffset:], value)
	return payload
}

func u32Payload(v uint32, size int) []byte {
	payload := make([]byte, size)
	binary.LittleEndian.PutUint32(payload, v)
	return payload
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}
