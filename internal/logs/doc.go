// Package logs reads the tunesync log file for the CLI.
//
// Last returns the newest lines with bounded memory, and Follow streams lines
// appended after a given offset, coping with the file being truncated or
// created late. Only complete lines are emitted; a partially written line is
// held back until its newline arrives.
package logs
