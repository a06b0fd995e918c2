package playlist_test

import (
	"errors"
	"testing"
	"time"

	"tunesync/internal/playlist"
)

func TestTrackLength(t *testing.T) {
	track := &playlist.Track{Duration: 61500}
	if got := track.Length(); got != 61500*time.Millisecond {
		t.Fatalf("Length() = %v", got)
	}
	var missing *playlist.Track
	if missing.Length() != 0 || missing.String() != "<nil>" {
		t.Fatal("expected nil track to be safe")
	}
}

func TestTrackString(t *testing.T) {
	track := &playlist.Track{Name: "Song", Album: "Album", AlbumArtist: "Artist", Location: "/music/a.mp3"}
	if got := track.String(); got != "Artist - Album - Song - /music/a.mp3" {
		t.Fatalf("String() = %q", got)
	}
}

func TestPlaylistTotalDuration(t *testing.T) {
	pl := &playlist.Playlist{
		Name: "Mix",
		Tracks: []*playlist.Track{
			{Duration: 4_000_000_000},
			nil,
			{Duration: 4_000_000_000},
		},
	}
	if got := pl.TotalDuration(); got != 8_000_000_000 {
		t.Fatalf("TotalDuration() = %d", got)
	}
	var empty *playlist.Playlist
	if empty.TotalDuration() != 0 {
		t.Fatal("expected nil playlist total to be zero")
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		uri     string
		want    string
		wantErr bool
	}{
		{"file://localhost/Users/me/Music/a%20b.m4a", "/Users/me/Music/a b.m4a", false},
		{"file://localhost/C:/Music/x.mp3", "C:/Music/x.mp3", false},
		{"file:///Users/me/a.m4a", "", true},
		{"file://localhost/bad%zz", "/bad%zz", false},
		{"file://localhost/music/100%.mp3", "/music/100%.mp3", false},
		{"file://localhost/music/tail%4", "/music/tail%4", false},
		{"file://localhost/music/caf%C3%A9%2Bmix.m4a", "/music/café+mix.m4a", false},
	}
	for _, tt := range tests {
		got, err := playlist.ParseLocation(tt.uri)
		if tt.wantErr {
			if !errors.Is(err, playlist.ErrBadLocation) {
				t.Fatalf("ParseLocation(%q) error = %v, want ErrBadLocation", tt.uri, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseLocation(%q): %v", tt.uri, err)
		}
		if got != tt.want {
			t.Fatalf("ParseLocation(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}
