package services_test

import (
	"context"
	"testing"

	"tunesync/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithSource(ctx, "musicdb")
	ctx = services.WithPlaylist(ctx, "Road Trip")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-42" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if source, ok := services.SourceFromContext(ctx); !ok || source != "musicdb" {
		t.Fatalf("unexpected source: %v %v", source, ok)
	}
	if name, ok := services.PlaylistFromContext(ctx); !ok || name != "Road Trip" {
		t.Fatalf("unexpected playlist: %v %v", name, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithPlaylist(ctx, "")
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, ok := services.PlaylistFromContext(ctx); ok {
		t.Fatal("expected no playlist value")
	}
}
