package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"tunesync/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrConflict, "export", "lock", "playlist dir busy", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"export", "lock", "playlist dir busy"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err)
	}
}

func TestExitCodeMapping(t *testing.T) {
	configErr := services.Wrap(services.ErrConfiguration, "config", "load", "bad source", nil)
	if code := services.ExitCode(configErr); code != services.ExitUsage {
		t.Fatalf("expected usage exit for configuration error, got %d", code)
	}

	wrapped := fmt.Errorf("cli: %w", services.Wrap(services.ErrValidation, "export", "select", "unknown playlist", nil))
	if code := services.ExitCode(wrapped); code != services.ExitUsage {
		t.Fatalf("expected usage exit for validation error, got %d", code)
	}

	if code := services.ExitCode(errors.New("io")); code != services.ExitFailure {
		t.Fatalf("expected failure exit, got %d", code)
	}

	if code := services.ExitCode(nil); code != 0 {
		t.Fatalf("expected zero exit for nil error, got %d", code)
	}
}

func TestErrorExposesStage(t *testing.T) {
	err := fmt.Errorf("cli: %w", services.Wrap(services.ErrNotFound, "catalog", "show", "no export abc", nil))
	var classified *services.Error
	if !errors.As(err, &classified) {
		t.Fatalf("expected *services.Error in chain, got %T", err)
	}
	if classified.Stage != "catalog" || classified.Op != "show" {
		t.Fatalf("unexpected stage/op %q/%q", classified.Stage, classified.Op)
	}
	if got := classified.Error(); got != "not found: catalog: show: no export abc" {
		t.Fatalf("unexpected message %q", got)
	}
}
