// Package main hosts the tunesync CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into library reads
// (decrypt, chunks, tracks, playlists), playlist exports, and maintenance of
// the export catalog and decode cache. It centralizes configuration
// resolution, key overrides, and logger setup so subcommands can focus on
// output instead of wiring.
//
// Keep this package lean: add new functionality to the internal packages
// first, then surface it through dedicated commands or flags here.
package main
