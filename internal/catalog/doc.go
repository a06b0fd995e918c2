// Package catalog records playlist export runs in SQLite.
//
// Each export run stores one row in exports (run id, library source,
// fingerprint of the library file, timestamps, written/skipped counts) and one
// exported_playlists row per playlist file it produced. The history command
// reads these rows back; nothing in the decode path depends on them.
//
// Schema changes bump schemaVersion in schema.go; users delete catalog.db to
// adopt the new schema.
package catalog
