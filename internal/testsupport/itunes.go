package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"howett.net/plist"
)

// ITunesTrack describes one entry of a synthetic iTunes XML library.
type ITunesTrack struct {
	ID          int64
	Name        string
	Artist      string
	Album       string
	AlbumArtist string
	Location    string
	TotalTime   int64
}

// ITunesPlaylist describes one playlist of a synthetic iTunes XML library.
type ITunesPlaylist struct {
	Name     string
	Master   bool
	TrackIDs []int64
}

// ITunesXML renders tracks and playlists as an XML property list shaped like
// "iTunes Music Library.xml".
func ITunesXML(t testing.TB, tracks []ITunesTrack, playlists []ITunesPlaylist) []byte {
	t.Helper()

	trackDict := make(map[string]any, len(tracks))
	for _, track := range tracks {
		entry := map[string]any{
			"Track ID":   track.ID,
			"Name":       track.Name,
			"Artist":     track.Artist,
			"Album":      track.Album,
			"Location":   track.Location,
			"Total Time": track.TotalTime,
		}
		if track.AlbumArtist != "" {
			entry["Album Artist"] = track.AlbumArtist
		}
		trackDict[strconv.FormatInt(track.ID, 10)] = entry
	}

	playlistArray := make([]any, 0, len(playlists))
	for _, pl := range playlists {
		items := make([]any, 0, len(pl.TrackIDs))
		for _, id := range pl.TrackIDs {
			items = append(items, map[string]any{"Track ID": id})
		}
		entry := map[string]any{
			"Name":           pl.Name,
			"Playlist Items": items,
		}
		if pl.Master {
			entry["Master"] = true
		}
		playlistArray = append(playlistArray, entry)
	}

	doc := map[string]any{
		"Major Version": int64(1),
		"Minor Version": int64(1),
		"Tracks":        trackDict,
		"Playlists":     playlistArray,
	}
	data, err := plist.MarshalIndent(doc, plist.XMLFormat, "\t")
	if err != nil {
		t.Fatalf("marshal itunes xml: %v", err)
	}
	return data
}

// WriteITunesXML writes the rendered library to path.
func WriteITunesXML(t testing.TB, path string, tracks []ITunesTrack, playlists []ITunesPlaylist) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, ITunesXML(t, tracks, playlists), 0o644); err != nil {
		t.Fatalf("write itunes xml: %v", err)
	}
	return path
}

// SampleITunesLibrary mirrors SampleLibrary as iTunes XML entries. Track ids
// are decimal: 161, 162 and 163.
func SampleITunesLibrary() ([]ITunesTrack, []ITunesPlaylist) {
	tracks := []ITunesTrack{
		{ID: 161, Name: "Song", Artist: "Artist", Album: "Album", Location: "file://localhost/music/a.mp3", TotalTime: 1000},
		{ID: 162, Name: "Other Song", Artist: "Guest", Album: "Album", AlbumArtist: "Artist", Location: "file://localhost/music/b%20side.mp3", TotalTime: 2500},
		{ID: 163, Name: "Calm", Artist: "Quiet <&> Co", Location: "file://localhost/music/calm.m4a", TotalTime: 60000},
	}
	playlists := []ITunesPlaylist{
		{Name: "Library", Master: true, TrackIDs: []int64{161, 162, 163}},
		{Name: "Road Trip", TrackIDs: []int64{161, 162}},
		{Name: "Focus", TrackIDs: []int64{163}},
	}
	return tracks, playlists
}
