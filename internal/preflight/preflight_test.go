package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tunesync/internal/config"
	"tunesync/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFileReadable(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "Library.musicdb")
	if err := os.WriteFile(f, []byte("hfma"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckFileReadable("lib", f); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckFileReadable("lib", dir); result.Passed {
		t.Fatal("expected failure for directory")
	}
	if result := CheckFileReadable("lib", filepath.Join(dir, "missing")); result.Passed {
		t.Fatal("expected failure for missing file")
	}
	if result := CheckFileReadable("lib", ""); result.Passed {
		t.Fatal("expected failure for unset path")
	}
}

func TestCheckMusicDBFile(t *testing.T) {
	dir := t.TempDir()

	notMusicDB := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notMusicDB, []byte("plain text, not a library"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckMusicDBFile("lib", notMusicDB); result.Passed || !strings.Contains(result.Detail, "hfma") {
		t.Fatalf("expected bad magic failure, got %+v", result)
	}

	truncated := filepath.Join(dir, "short.musicdb")
	if err := os.WriteFile(truncated, []byte("hfma\x00\x01"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckMusicDBFile("lib", truncated); result.Passed {
		t.Fatalf("expected truncated header failure, got %+v", result)
	}

	sealed := testsupport.SampleLibrary().WriteSealed(t, dir, testsupport.TestKey)
	result := CheckMusicDBFile("lib", sealed)
	if !result.Passed || !strings.Contains(result.Detail, "encrypted") {
		t.Fatalf("expected sealed library to pass, got %+v", result)
	}
}

func TestRunAllStopsWhenCanceled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLibrary(testsupport.SampleLibrary()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if results := RunAll(ctx, cfg); len(results) != 0 {
		t.Fatalf("expected no checks after cancel, got %+v", results)
	}
}

func TestCheckKey(t *testing.T) {
	cfg := config.Default()
	cfg.Library.Key = "0123456789abcdef"
	if result := CheckKey(&cfg); !result.Passed || result.Detail != "AES-128" {
		t.Fatalf("unexpected result %+v", result)
	}

	cfg.Library.Key = "short"
	if result := CheckKey(&cfg); result.Passed || !strings.Contains(result.Detail, "5 bytes") {
		t.Fatalf("unexpected result %+v", result)
	}

	cfg.Library.Key = ""
	cfg.Paths.KeyFile = ""
	if result := CheckKey(&cfg); result.Passed {
		t.Fatal("expected failure without key")
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithLibrary(testsupport.SampleLibrary()),
		testsupport.WithDecodeCache(2),
	)
	results := RunAll(context.Background(), cfg)

	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	want := "Music library,Decryption key,Playlist directory,State directory,Decode cache"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("unexpected checks %q", got)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures %+v", failed)
	}

	cfg.Library.Source = config.SourceITunesXML
	results = RunAll(context.Background(), cfg)
	if results[0].Name != "iTunes library" || results[0].Passed {
		t.Fatalf("expected missing itunes library to fail, got %+v", results[0])
	}
	if len(Failed(results)) != 1 {
		t.Fatalf("expected one failure, got %+v", Failed(results))
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if RunAll(context.Background(), nil) != nil {
		t.Fatal("expected nil results for nil config")
	}
}
