package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// maxFileNameBytes leaves room for an extension and a collision suffix under
// the common 255 byte limit.
const maxFileNameBytes = 200

// windowsDeviceNames cannot be used as a file stem on Windows, whatever the
// extension.
var windowsDeviceNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SanitizeFileName makes a playlist name usable as a file stem on both POSIX
// and Windows filesystems. Separators, colons and asterisks become dashes;
// other reserved punctuation and control characters are dropped. The result is
// NFC normalized, has no leading dots or trailing dots and spaces, and may be
// empty.
func SanitizeFileName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*':
			return '-'
		case '?', '"', '<', '>', '|':
			return -1
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, norm.NFC.String(name))

	mapped = strings.TrimLeft(strings.TrimSpace(mapped), ".")
	mapped = truncateUTF8(strings.TrimSpace(mapped), maxFileNameBytes)
	mapped = strings.TrimRight(mapped, ". ")

	stem, _, _ := strings.Cut(mapped, ".")
	if _, reserved := windowsDeviceNames[strings.ToUpper(strings.TrimSpace(stem))]; reserved {
		mapped = "_" + mapped
	}
	return mapped
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
