// Package services holds the small types shared by the export workflow and
// the CLI: context keys that tag a run for logging, and the classified Error
// whose kind decides the process exit code.
package services
