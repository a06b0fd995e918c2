// Package zpl renders playlists in the Zune/Groove ".zpl" format, a SMIL
// document with one media element per track.
package zpl
