// Package musicdb decodes the encrypted Library.musicdb container written by
// Apple's Music app and recovers its tracks and playlists.
//
// Decoding runs in three forward-only stages:
//
//   - Decrypt parses the hfma envelope header, AES-ECB decrypts the
//     cipher-text span and inflates the payload into one decoded buffer.
//   - ReadChunks walks the decoded buffer as tag/length-prefixed chunks and
//     decodes each recognized tag into a typed Chunk value.
//   - NewLibrary scans the chunks twice: once eagerly to build the track
//     table, and once lazily (PlaylistIterator) to assemble playlists.
//
// Declared element counts in the file are enforced at every level. Any
// violation is fatal for the decode session; the package never returns
// partial results.
//
// # Track ids
//
// Track and playlist reference ids are the 8 persistent-id bytes rendered as
// hex. PaddedIDs (the default) renders fixed-width, zero-padded ids.
// LegacyIDs reproduces the unpadded rendering used by earlier tooling, which
// can yield ambiguous ids; select it only when ids must match those tools.
package musicdb
