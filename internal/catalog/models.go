package catalog

import "time"

// Export is one recorded export run.
type Export struct {
	RunID       string
	Source      string
	LibraryPath string
	Fingerprint string
	StartedAt   time.Time
	FinishedAt  time.Time
	Written     int
	Skipped     int
	Playlists   []ExportedPlaylist
}

// Duration reports how long the run took.
func (e Export) Duration() time.Duration {
	if e.FinishedAt.Before(e.StartedAt) {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// ExportedPlaylist is one playlist handled by an export run. Skipped entries
// were left in place because the target file already existed.
type ExportedPlaylist struct {
	Name       string
	TrackCount int
	DurationMS uint64
	Path       string
	Skipped    bool
}
