package config

const (
	defaultConfigPath      = "~/.config/tunesync/config.toml"
	defaultMusicDBPath     = "~/Music/Music/Music Library.musiclibrary/Library.musicdb"
	defaultKeyFile         = "~/.config/tunesync/musicdb.key"
	defaultITunesXMLPath   = "~/Music/iTunes/iTunes Music Library.xml"
	defaultPlaylistDir     = "~/Music/Playlists"
	defaultStateDir        = "~/.local/share/tunesync"
	defaultSource          = SourceMusicDB
	defaultGenerator       = "tunesync"
	defaultCacheMaxEntries = 8
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MusicDBPath:   defaultMusicDBPath,
			KeyFile:       defaultKeyFile,
			ITunesXMLPath: defaultITunesXMLPath,
			PlaylistDir:   defaultPlaylistDir,
			StateDir:      defaultStateDir,
			CacheDir:      defaultCacheDir(),
		},
		Library: Library{
			Source: defaultSource,
		},
		Export: Export{
			Generator: defaultGenerator,
		},
		DecodeCache: DecodeCache{
			MaxEntries: defaultCacheMaxEntries,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
