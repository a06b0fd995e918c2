// Package decodecache keeps decoded musicdb buffers on disk so repeated runs
// against an unchanged library skip the AES and zlib work.
//
// # Storage
//
// Entries are keyed by the BLAKE3 fingerprint of the encrypted library file.
// Each entry is two files in the cache directory (default:
// ~/.cache/tunesync/decoded):
//
//	<fingerprint>.zst   decoded buffer, zstd-compressed
//	<fingerprint>.cbor  sidecar metadata (source path, sizes, cache time)
//
// A payload whose sidecar is missing or whose size does not match the
// sidecar is treated as corrupt: it is removed and reported as a miss.
//
// # Usage
//
// The cache is disabled by default. Enable it in config.toml:
//
//	[decode_cache]
//	enabled = true
//	max_entries = 8
//
// CLI commands for inspection and management:
//
//	tunesync cache list    # List cached entries, newest first
//	tunesync cache clear   # Remove all entries
package decodecache
