package musicdb

import (
	"errors"
	"fmt"
)

// Error classes. Every failure returned by this package wraps exactly one of
// these, so callers can classify with errors.Is.
var (
	ErrFormat     = errors.New("musicdb format error")
	ErrDecompress = errors.New("musicdb decompress failed")
	ErrValidation = errors.New("musicdb validation error")
	ErrLookup     = errors.New("musicdb lookup error")
)

// Refinements of ErrFormat.
var (
	ErrBadMagic        = fmt.Errorf("%w: bad magic", ErrFormat)
	ErrBadMarker       = fmt.Errorf("%w: bad marker", ErrFormat)
	ErrBadLocation     = fmt.Errorf("%w: bad location", ErrFormat)
	ErrTruncated       = fmt.Errorf("%w: truncated", ErrFormat)
	ErrMissingSection  = fmt.Errorf("%w: missing section", ErrFormat)
	ErrUnexpectedChunk = fmt.Errorf("%w: unexpected chunk", ErrFormat)
)

func chunkError(marker error, tag Tag, offset int, format string, args ...any) error {
	return fmt.Errorf("%w: %s at 0x%x: %s", marker, tag, offset, fmt.Sprintf(format, args...))
}
