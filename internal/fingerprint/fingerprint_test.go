package fingerprint_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"tunesync/internal/fingerprint"
)

func TestFileMatchesBytes(t *testing.T) {
	data := bytes.Repeat([]byte("hfma"), 600000)
	path := filepath.Join(t.TempDir(), "Library.musicdb")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := fingerprint.File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if want := fingerprint.Bytes(data); got != want {
		t.Fatalf("streamed digest %s differs from one-shot %s", got, want)
	}
	if !fingerprint.Valid(got) {
		t.Fatalf("expected %q to be a valid fingerprint", got)
	}
}

func TestFingerprintChangesWithContent(t *testing.T) {
	if fingerprint.Bytes([]byte("a")) == fingerprint.Bytes([]byte("b")) {
		t.Fatal("expected distinct digests")
	}
}

func TestFileMissing(t *testing.T) {
	if _, err := fingerprint.File(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReaderHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := fingerprint.Reader(ctx, bytes.NewReader([]byte("data"))); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestValid(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"abc", false},
		{fingerprint.Bytes(nil), true},
		{string(bytes.Repeat([]byte("z"), fingerprint.Size)), false},
	}
	for _, tc := range cases {
		if got := fingerprint.Valid(tc.value); got != tc.want {
			t.Fatalf("Valid(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}
