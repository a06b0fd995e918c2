package musicdb

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// IDEncoding selects how 8-byte persistent ids are rendered as strings.
type IDEncoding int

const (
	// PaddedIDs renders each byte as two uppercase hex digits.
	PaddedIDs IDEncoding = iota
	// LegacyIDs renders each byte without zero padding, matching ids
	// produced by earlier tooling. Distinct byte sequences may collide.
	LegacyIDs
)

// Format renders raw as an id string.
func (e IDEncoding) Format(raw []byte) string {
	if e == LegacyIDs {
		var b strings.Builder
		b.Grow(len(raw) * 2)
		for _, v := range raw {
			b.WriteString(strings.ToUpper(strconv.FormatUint(uint64(v), 16)))
		}
		return b.String()
	}
	return strings.ToUpper(hex.EncodeToString(raw))
}

func (e IDEncoding) String() string {
	if e == LegacyIDs {
		return "legacy"
	}
	return "padded"
}
