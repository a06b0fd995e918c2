package musicdb

import (
	"bytes"
	"crypto/aes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zlib"
)

// Magic is the tag at the start of every envelope.
const Magic = "hfma"

const maxCryptSizeOffset = 84

// HeaderSize is the number of bytes ParseHeader needs.
const HeaderSize = maxCryptSizeOffset + 4

// ErrInvalidKey reports a key whose length is not a valid AES key size.
var ErrInvalidKey = errors.New("musicdb: invalid key")

// Header is the fixed part of the envelope that precedes the cipher text.
type Header struct {
	EnvelopeLength uint32
	FileSize       uint32
	MaxCryptSize   uint32
}

// ParseHeader reads the envelope header from the start of raw.
func ParseHeader(raw []byte) (Header, error) {
	if len(raw) < len(Magic) || string(raw[:len(Magic)]) != Magic {
		return Header{}, fmt.Errorf("%w: expected %q", ErrBadMagic, Magic)
	}
	if len(raw) < HeaderSize {
		return Header{}, fmt.Errorf("%w: envelope header needs %d bytes, have %d", ErrTruncated, HeaderSize, len(raw))
	}
	h := Header{
		EnvelopeLength: binary.LittleEndian.Uint32(raw[4:8]),
		FileSize:       binary.LittleEndian.Uint32(raw[8:12]),
		MaxCryptSize:   binary.LittleEndian.Uint32(raw[maxCryptSizeOffset:HeaderSize]),
	}
	if h.FileSize < h.EnvelopeLength {
		return Header{}, fmt.Errorf("%w: file size %d smaller than envelope length %d", ErrFormat, h.FileSize, h.EnvelopeLength)
	}
	return h, nil
}

// CryptSize returns the number of encrypted bytes that follow the envelope.
// The span is capped by MaxCryptSize and otherwise floored to whole cipher
// blocks.
func (h Header) CryptSize() uint32 {
	if h.MaxCryptSize < h.FileSize {
		return h.MaxCryptSize
	}
	remainder := h.FileSize - h.EnvelopeLength
	return remainder - remainder%aes.BlockSize
}

// Decrypt turns a raw envelope into the decoded buffer: the unencrypted
// envelope prefix followed by the inflated payload.
func Decrypt(raw, key []byte) ([]byte, error) {
	h, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	start := int(h.EnvelopeLength)
	if start > len(raw) {
		return nil, fmt.Errorf("%w: envelope length %d exceeds input size %d", ErrTruncated, start, len(raw))
	}
	cryptSize := int(h.CryptSize())
	if cryptSize%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: crypt size %d is not a multiple of %d", ErrFormat, cryptSize, aes.BlockSize)
	}
	end := start + cryptSize
	if end > len(raw) {
		return nil, fmt.Errorf("%w: crypt span ends at %d, input is %d bytes", ErrTruncated, end, len(raw))
	}

	payload := make([]byte, len(raw)-start)
	for i := start; i < end; i += aes.BlockSize {
		block.Decrypt(payload[i-start:], raw[i:i+aes.BlockSize])
	}
	copy(payload[cryptSize:], raw[end:])

	inflated, err := inflate(payload)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, start+len(inflated))
	out = append(out, raw[:start]...)
	out = append(out, inflated...)
	return out, nil
}

// DecryptFile reads path and decrypts it with key.
func DecryptFile(path string, key []byte) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read library: %w", err)
	}
	return Decrypt(raw, key)
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompress, err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompress, err)
	}
	return out, nil
}
