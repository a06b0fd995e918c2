// Package config loads tunesync settings from TOML.
//
// Load merges built-in defaults, the config file and the TUNESYNC_*
// environment overrides, expands "~" in every path and validates the
// result. Unknown keys are an error. MusicDBKey resolves the library key
// from library.key or paths.key_file.
package config
