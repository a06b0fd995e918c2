// Package playlist holds the track and playlist model shared by every library
// reader, plus the Reader interface the export workflow consumes.
//
// Readers own their track tables. Playlists reference tracks by pointer so a
// track that appears in many playlists is stored once.
package playlist
