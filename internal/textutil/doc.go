// Package textutil provides filename sanitization and case-insensitive name
// matching for playlist export.
//
// Playlist names come straight from the library, so they may contain path
// separators or characters that some filesystems reject. SanitizeFileName
// turns them into safe file names; NameSet matches configured playlist names
// using Unicode case folding rather than ASCII lowercasing.
package textutil
