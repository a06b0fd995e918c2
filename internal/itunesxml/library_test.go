package itunesxml_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tunesync/internal/itunesxml"
	"tunesync/internal/playlist"
	"tunesync/internal/testsupport"
)

func loadSample(t *testing.T, opts ...itunesxml.Option) *itunesxml.Library {
	t.Helper()
	tracks, playlists := testsupport.SampleITunesLibrary()
	path := testsupport.WriteITunesXML(t, filepath.Join(t.TempDir(), "iTunes Music Library.xml"), tracks, playlists)
	lib, err := itunesxml.Load(path, opts...)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return lib
}

func TestLoadSampleLibrary(t *testing.T) {
	lib := loadSample(t)
	if lib.TrackCount() != 3 {
		t.Fatalf("expected 3 tracks, got %d", lib.TrackCount())
	}
	if !strings.HasSuffix(lib.Path(), "iTunes Music Library.xml") {
		t.Fatalf("unexpected path %q", lib.Path())
	}

	track, err := lib.TrackByID("162")
	if err != nil {
		t.Fatalf("TrackByID: %v", err)
	}
	want := playlist.Track{
		Name:        "Other Song",
		Artist:      "Guest",
		Album:       "Album",
		AlbumArtist: "Artist",
		Location:    "/music/b side.mp3",
		Duration:    2500,
	}
	if *track != want {
		t.Fatalf("unexpected track %+v", *track)
	}

	first, err := lib.TrackByID("161")
	if err != nil {
		t.Fatalf("TrackByID: %v", err)
	}
	if first.AlbumArtist != "Artist" {
		t.Fatalf("expected album artist to fall back to artist, got %q", first.AlbumArtist)
	}
	again, _ := lib.TrackByID("161")
	if again != first {
		t.Fatal("expected resolved tracks to be cached")
	}
}

func TestPlaylistsSkipMasterAndKeepOrder(t *testing.T) {
	lib := loadSample(t)

	var names []string
	var counts []int
	for pl, err := range lib.Playlists() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		names = append(names, pl.Name)
		counts = append(counts, len(pl.Tracks))
	}
	if strings.Join(names, ",") != "Road Trip,Focus" {
		t.Fatalf("unexpected playlists %v", names)
	}
	if counts[0] != 2 || counts[1] != 1 {
		t.Fatalf("unexpected track counts %v", counts)
	}

	var reader playlist.Reader = lib
	for pl := range reader.Playlists() {
		if pl.Name != "Road Trip" {
			t.Fatalf("expected Road Trip first, got %q", pl.Name)
		}
		break
	}
}

func TestUnknownTrack(t *testing.T) {
	lib := loadSample(t)
	if _, err := lib.TrackByID("999"); !errors.Is(err, playlist.ErrTrackNotFound) {
		t.Fatalf("expected ErrTrackNotFound, got %v", err)
	}
}

func TestPlaylistWithBadReferenceIsSkipped(t *testing.T) {
	tracks, _ := testsupport.SampleITunesLibrary()
	tracks = append(tracks, testsupport.ITunesTrack{ID: 170, Name: "Stream", Location: "http://radio.example/stream"})
	playlists := []testsupport.ITunesPlaylist{
		{Name: "Dangling", TrackIDs: []int64{161, 404}},
		{Name: "Streams", TrackIDs: []int64{170}},
		{Name: "Focus", TrackIDs: []int64{163}},
	}
	lib, err := itunesxml.Parse(bytes.NewReader(testsupport.ITunesXML(t, tracks, playlists)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var names []string
	for pl, err := range lib.Playlists() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		names = append(names, pl.Name)
	}
	if len(names) != 1 || names[0] != "Focus" {
		t.Fatalf("expected only Focus, got %v", names)
	}

	if _, err := lib.TrackByID("170"); !errors.Is(err, itunesxml.ErrMalformedTrack) || !errors.Is(err, playlist.ErrBadLocation) {
		t.Fatalf("expected malformed track error, got %v", err)
	}
}

func TestRequireFiles(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.mp3")
	if err := os.WriteFile(present, []byte("id3"), 0o644); err != nil {
		t.Fatal(err)
	}
	tracks := []testsupport.ITunesTrack{
		{ID: 1, Name: "Here", Location: "file://localhost" + present, TotalTime: 10},
		{ID: 2, Name: "Gone", Location: "file://localhost" + filepath.Join(dir, "gone.mp3"), TotalTime: 10},
	}
	data := testsupport.ITunesXML(t, tracks, nil)

	strict, err := itunesxml.Parse(bytes.NewReader(data), itunesxml.WithRequireFiles(true))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if track, err := strict.TrackByID("1"); err != nil || track.Location != present {
		t.Fatalf("expected present track, got %+v, %v", track, err)
	}
	if _, err := strict.TrackByID("2"); !errors.Is(err, itunesxml.ErrMissingFile) {
		t.Fatalf("expected ErrMissingFile, got %v", err)
	}

	lenient, err := itunesxml.Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := lenient.TrackByID("2"); err != nil {
		t.Fatalf("expected missing file to be accepted by default: %v", err)
	}
}

func TestParseRejectsNonLibrary(t *testing.T) {
	cases := map[string]string{
		"garbage":   "<<< not a plist >>>",
		"no tracks": `<?xml version="1.0" encoding="UTF-8"?><plist version="1.0"><dict><key>Major Version</key><integer>1</integer></dict></plist>`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := itunesxml.Parse(strings.NewReader(body)); !errors.Is(err, itunesxml.ErrFormat) {
				t.Fatalf("expected ErrFormat, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := itunesxml.Load(filepath.Join(t.TempDir(), "missing.xml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTracksYieldsResolvableTracksInIDOrder(t *testing.T) {
	tracks, _ := testsupport.SampleITunesLibrary()
	tracks = append(tracks,
		testsupport.ITunesTrack{ID: 9, Name: "Early", Location: "file://localhost/music/early.mp3", TotalTime: 5},
		testsupport.ITunesTrack{ID: 170, Name: "Stream", Location: "http://radio.example/stream"},
	)
	lib, err := itunesxml.Parse(bytes.NewReader(testsupport.ITunesXML(t, tracks, nil)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var ids []string
	for id, track := range lib.Tracks() {
		if track == nil {
			t.Fatalf("nil track for %s", id)
		}
		ids = append(ids, id)
	}
	if got := strings.Join(ids, ","); got != "9,161,162,163" {
		t.Fatalf("unexpected ids %q", got)
	}
}
