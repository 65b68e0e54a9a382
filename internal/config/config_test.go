package config

import (
	"context"
	"errors"
	"flag"
	"path/filepath"
	"testing"
	"time"

	"github.com/Garsondee/Venue-Walkthrough/internal/layout"
	"github.com/Garsondee/Venue-Walkthrough/internal/minimap"
	"github.com/Garsondee/Venue-Walkthrough/internal/nav"
)

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VENUE_LAYOUT_DIR", "/srv/layouts")
	t.Setenv("VENUE_WALK_SPEED", "3.5")
	t.Setenv("VENUE_TEXTURE_TIMEOUT", "2s")
	t.Setenv("VENUE_FETCH_TIMEOUT", "4")
	t.Setenv("VENUE_MINIMAP_SIZE", "not-a-number")

	c := Load()
	if c.LayoutDir != "/srv/layouts" {
		t.Fatalf("expected layout dir from env, got %q", c.LayoutDir)
	}
	if c.WalkSpeed != 3.5 {
		t.Fatalf("expected walk speed 3.5, got %f", c.WalkSpeed)
	}
	if c.TextureTimeout != 2*time.Second || c.FetchTimeout != 4*time.Second {
		t.Fatalf("expected 2s/4s timeouts, got %s/%s", c.TextureTimeout, c.FetchTimeout)
	}
	if c.MinimapSize != Default().MinimapSize {
		t.Fatalf("expected bad int to keep default, got %d", c.MinimapSize)
	}
}

func TestNormalize_ClampsSpeeds(t *testing.T) {
	c := Default()
	c.WalkSpeed = 50
	c.LookSpeed = -1
	c = c.Normalize()
	if c.WalkSpeed != nav.MaxWalkSpeed || c.LookSpeed != nav.MinLookSpeed {
		t.Fatalf("expected clamped speeds, got walk=%f look=%f", c.WalkSpeed, c.LookSpeed)
	}
}

func TestNormalize_ClampsMinimapSize(t *testing.T) {
	c := Default()
	c.MinimapSize = 100000
	if got := c.Normalize().MinimapSize; got != minimap.MaxMapSize {
		t.Fatalf("expected minimap size capped at %d, got %d", minimap.MaxMapSize, got)
	}
	c.MinimapSize = 10
	if got := c.Normalize().MinimapSize; got != minimap.MinMapSize {
		t.Fatalf("expected minimap size raised to %d, got %d", minimap.MinMapSize, got)
	}
}

func TestBindFlags(t *testing.T) {
	c := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.BindFlags(fs)
	if err := fs.Parse([]string{"-layout-id", "gala", "-walk-speed", "1.5", "-port", "8080"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.LayoutID != "gala" || c.WalkSpeed != 1.5 || c.ServicePort != "8080" {
		t.Fatalf("expected flag overrides, got %+v", c)
	}
	cam := c.Camera()
	if cam.WalkSpeed != 1.5 || cam.Position.Y != nav.EyeHeight {
		t.Fatalf("expected camera with flag walk speed at eye height, got %+v", cam)
	}
}

func TestOpenSource(t *testing.T) {
	ctx := context.Background()

	c := Default()
	src, closer, err := c.OpenSource(ctx)
	if err != nil {
		t.Fatalf("open dir source: %v", err)
	}
	if _, ok := src.(*layout.FileSource); !ok {
		t.Fatalf("expected FileSource, got %T", src)
	}
	_ = closer.Close()

	c.LayoutURL = "http://example.invalid"
	src, _, _ = c.OpenSource(ctx)
	if _, ok := src.(*layout.HTTPSource); !ok {
		t.Fatalf("expected HTTPSource, got %T", src)
	}

	c.LayoutDB = filepath.Join(t.TempDir(), "layouts.db")
	src, closer, err = c.OpenSource(ctx)
	if err != nil {
		t.Fatalf("open sqlite source: %v", err)
	}
	defer closer.Close()
	if _, ok := src.(*layout.SQLiteSource); !ok {
		t.Fatalf("expected SQLiteSource, got %T", src)
	}

	empty := Config{}
	if _, _, err := empty.OpenSource(ctx); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}
