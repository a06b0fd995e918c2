package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"tunesync/internal/config"
	"tunesync/internal/services"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, env.configPath)
	requireContains(t, out, "Library source")
	requireContains(t, out, "musicdb")
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected init to refuse an existing file with a conflict, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateRejectsBadSource(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Library.Source = "spotify"
	env.writeConfig(t)

	if _, _, err := runCLI(t, []string{"config", "validate"}, env.configPath); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestConfigShowRedactsKey(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	var shown config.Config
	if err := toml.Unmarshal([]byte(out), &shown); err != nil {
		t.Fatalf("config show is not TOML: %v\n%s", err, out)
	}
	if shown.Paths.PlaylistDir != env.cfg.Paths.PlaylistDir {
		t.Fatalf("unexpected playlist dir %q", shown.Paths.PlaylistDir)
	}
	if env.cfg.Library.Key != "" && strings.Contains(out, env.cfg.Library.Key) {
		t.Fatal("expected key material to be redacted")
	}
	if shown.Library.Key != "<redacted>" {
		t.Fatalf("expected redacted key, got %q", shown.Library.Key)
	}
}
