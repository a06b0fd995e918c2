// Package preflight provides readiness checks for the library file, the key
// material and the directories tunesync writes to.
//
// The CLI "tunesync status" command renders RunAll's results; "tunesync
// export" runs the same checks first and refuses to start when one fails.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
