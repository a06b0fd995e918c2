// Package export writes library playlists to the playlist directory as .zpl
// files.
//
// Run holds an advisory lock on the playlist directory for its whole
// duration, tags the run with a fresh id, renders every selected playlist and
// writes it atomically. Files that already exist are left alone unless the
// configuration asks to overwrite them. A playlist iteration error aborts the
// run; write failures are collected and reported together after the
// remaining playlists are handled. When a catalog store is supplied the run
// is recorded there.
package export
