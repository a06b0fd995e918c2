// Package itunesxml reads the legacy "iTunes Music Library.xml" export and
// serves it through the same playlist.Reader surface as the musicdb decoder.
//
// The XML property list is decoded once at Load. Tracks are resolved lazily
// by id and cached; Playlists resolves each playlist's items in order. A
// playlist whose items cannot all be resolved is skipped with a warning
// rather than failing the whole read, since older exports routinely carry
// dangling references.
package itunesxml
