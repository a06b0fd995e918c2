package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tunesync/internal/config"
	"tunesync/internal/musicdb"
	"tunesync/internal/services"
	"tunesync/internal/testsupport"
)

func TestDecryptCommandWritesDecodedBuffer(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "decoded.bin")

	out, _, err := runCLI(t, []string{"decrypt", target}, env.configPath)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	requireContains(t, out, "decoded bytes to "+target)

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want, err := musicdb.DecryptFile(env.cfg.Paths.MusicDBPath, testsupport.TestKey)
	if err != nil {
		t.Fatalf("DecryptFile: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("decrypt output differs from DecryptFile (%d vs %d bytes)", len(got), len(want))
	}
	if string(got[:4]) != "hfma" {
		t.Fatalf("expected envelope prefix, got %q", got[:4])
	}
}

func TestDecryptCommandToStdout(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"decrypt", "-"}, env.configPath)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if len(out) < 4 || out[:4] != "hfma" {
		t.Fatalf("expected decoded buffer on stdout, got %q", out)
	}
}

func TestDecryptCommandWrongKeyIsUsageError(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"--key", "fedcba9876543210", "decrypt", filepath.Join(env.baseDir, "out.bin")}, env.configPath)
	if err == nil {
		t.Fatal("expected decrypt with the wrong key to fail")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if code := services.ExitCode(err); code != services.ExitUsage {
		t.Fatalf("expected exit code %d, got %d", services.ExitUsage, code)
	}
}

func TestDecryptCommandMissingLibrary(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Paths.MusicDBPath = filepath.Join(env.baseDir, "absent.musicdb")
	env.writeConfig(t)

	_, _, err := runCLI(t, []string{"decrypt", filepath.Join(env.baseDir, "out.bin")}, env.configPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestChunksCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"--json", "chunks", "--limit", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("chunks: %v", err)
	}
	var views []chunkView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(views))
	}
	if views[0].Tag != "hfma" || views[0].Offset != 0 {
		t.Fatalf("expected the envelope first, got %+v", views[0])
	}
	if views[1].Tag != "plma" && views[1].Tag != "hsma" {
		t.Fatalf("unexpected second chunk %+v", views[1])
	}

	out, _, err = runCLI(t, []string{"--json", "chunks", "--tag", "itma"}, env.configPath)
	if err != nil {
		t.Fatalf("chunks --tag: %v", err)
	}
	views = nil
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 track records, got %d", len(views))
	}
	for _, v := range views {
		if v.Kind != "TrackRecord" {
			t.Fatalf("unexpected kind %q", v.Kind)
		}
	}

	out, _, err = runCLI(t, []string{"chunks", "-n", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("chunks table: %v", err)
	}
	requireContains(t, out, "hfma")
}

func TestTracksCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"--json", "tracks"}, env.configPath)
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	var views []trackView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(views))
	}
	if views[1].Name != "Other Song" || views[1].Location != "/music/b side.mp3" || views[1].DurationMS != 2500 {
		t.Fatalf("unexpected second track %+v", views[1])
	}
	if views[0].AlbumArtist != "Artist" {
		t.Fatalf("expected album artist fallback, got %+v", views[0])
	}

	out, _, err = runCLI(t, []string{"tracks", "--limit", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("tracks table: %v", err)
	}
	requireContains(t, out, "Song")
	requireContains(t, out, "0:01")
}

func TestPlaylistsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"playlists"}, env.configPath)
	if err != nil {
		t.Fatalf("playlists: %v", err)
	}
	requireContains(t, out, "Road Trip")
	requireContains(t, out, "Focus")

	out, _, err = runCLI(t, []string{"--json", "playlists", "--tracks"}, env.configPath)
	if err != nil {
		t.Fatalf("playlists json: %v", err)
	}
	var views []playlistView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 playlists, got %d", len(views))
	}
	if views[0].Name != "Road Trip" || views[0].TrackCount != 2 || views[0].DurationMS != 3500 {
		t.Fatalf("unexpected first playlist %+v", views[0])
	}
	if len(views[1].Tracks) != 1 || views[1].Tracks[0] != "/music/calm.m4a" {
		t.Fatalf("unexpected Focus tracks %v", views[1].Tracks)
	}

	out, _, err = runCLI(t, []string{"playlists", "--tracks"}, env.configPath)
	if err != nil {
		t.Fatalf("playlists --tracks: %v", err)
	}
	requireContains(t, out, "Road Trip (2 tracks, 0:03)")
	requireContains(t, out, "  /music/a.mp3")
}

func TestPlaylistsCommandReadsITunesXML(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Library.Source = config.SourceITunesXML
	tracks, playlists := testsupport.SampleITunesLibrary()
	testsupport.WriteITunesXML(t, env.cfg.Paths.ITunesXMLPath, tracks, playlists)
	env.writeConfig(t)

	out, _, err := runCLI(t, []string{"--json", "playlists"}, env.configPath)
	if err != nil {
		t.Fatalf("playlists: %v", err)
	}
	var views []playlistView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(views) != 2 || views[0].Name != "Road Trip" || views[1].Name != "Focus" {
		t.Fatalf("unexpected playlists %+v", views)
	}

	if _, _, err := runCLI(t, []string{"chunks"}, env.configPath); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected chunks to reject itunes_xml, got %v", err)
	}
}

func TestFormatMillis(t *testing.T) {
	tests := []struct {
		ms   uint64
		want string
	}{
		{0, "0:00"},
		{999, "0:00"},
		{1000, "0:01"},
		{61_000, "1:01"},
		{3_600_000, "1:00:00"},
		{3_723_000, "1:02:03"},
	}
	for _, tt := range tests {
		if got := formatMillis(tt.ms); got != tt.want {
			t.Errorf("formatMillis(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
