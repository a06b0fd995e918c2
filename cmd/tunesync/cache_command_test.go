package main

import (
	"encoding/json"
	"testing"

	"tunesync/internal/testsupport"
)

func TestCacheCommands(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithDecodeCache(2))

	out, _, err := runCLI(t, []string{"cache", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "Decode cache: empty")

	if _, _, err := runCLI(t, []string{"playlists"}, env.configPath); err != nil {
		t.Fatalf("playlists: %v", err)
	}

	out, _, err = runCLI(t, []string{"--json", "cache", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list json: %v", err)
	}
	var entries []cacheEntryView
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one cached library, got %d", len(entries))
	}
	if entries[0].SourcePath != env.cfg.Paths.MusicDBPath || entries[0].DecodedSize == 0 {
		t.Fatalf("unexpected entry %+v", entries[0])
	}

	if _, _, err := runCLI(t, []string{"cache", "remove", "not-a-fingerprint"}, env.configPath); err == nil {
		t.Fatal("expected invalid fingerprint to be rejected")
	}
	out, _, err = runCLI(t, []string{"cache", "remove", entries[0].Fingerprint}, env.configPath)
	if err != nil {
		t.Fatalf("cache remove: %v", err)
	}
	requireContains(t, out, "Removed decode cache entry")

	if _, _, err := runCLI(t, []string{"tracks"}, env.configPath); err != nil {
		t.Fatalf("tracks: %v", err)
	}
	out, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Removed 1 decode cache entries")

	out, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear again: %v", err)
	}
	requireContains(t, out, "Decode cache is already empty")
}
