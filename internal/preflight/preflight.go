package preflight

import (
	"context"

	"tunesync/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks the library input for the configured source, the key when
// the source is encrypted, and every directory tunesync will write to.
// Optional directories are only checked when their feature is on. Checks
// stop early once ctx is done.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var checks []func() Result
	switch cfg.Library.Source {
	case config.SourceMusicDB:
		checks = append(checks,
			func() Result { return CheckMusicDBFile("Music library", cfg.Paths.MusicDBPath) },
			func() Result { return CheckKey(cfg) },
		)
	case config.SourceITunesXML:
		checks = append(checks, func() Result { return CheckFileReadable("iTunes library", cfg.Paths.ITunesXMLPath) })
	}
	dirs := [][2]string{
		{"Playlist directory", cfg.Paths.PlaylistDir},
		{"State directory", cfg.Paths.StateDir},
	}
	if cfg.DecodeCache.Enabled {
		dirs = append(dirs, [2]string{"Decode cache", cfg.Paths.CacheDir})
	}
	if cfg.Paths.LogDir != "" {
		dirs = append(dirs, [2]string{"Log directory", cfg.Paths.LogDir})
	}
	for _, dir := range dirs {
		checks = append(checks, func() Result { return CheckDirectoryAccess(dir[0], dir[1]) })
	}

	results := make([]Result, 0, len(checks))
	for _, check := range checks {
		if ctx.Err() != nil {
			break
		}
		results = append(results, check())
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
