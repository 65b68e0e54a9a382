// Package config holds runtime settings for the walkthrough window, the
// headless report and the scene service. Values come from defaults, then
// VENUE_* environment variables, then command-line flags.
package config

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/Garsondee/Venue-Walkthrough/internal/layout"
	"github.com/Garsondee/Venue-Walkthrough/internal/minimap"
	"github.com/Garsondee/Venue-Walkthrough/internal/nav"
	"github.com/Garsondee/Venue-Walkthrough/internal/texture"
)

type Config struct {
	// Layout source: exactly one of these is normally set.
	LayoutDir string
	LayoutURL string
	LayoutDB  string
	// LayoutID opens a walkthrough directly instead of the lobby.
	LayoutID string

	WindowWidth  int
	WindowHeight int

	WalkSpeed float64
	LookSpeed float64

	MinimapSize  int
	MinimapScale float64

	FetchTimeout   time.Duration
	TextureTimeout time.Duration
	TextureMaxSide int

	ServicePort  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LayoutDir:      "layouts",
		WindowWidth:    1280,
		WindowHeight:   720,
		WalkSpeed:      nav.DefaultWalkSpeed,
		LookSpeed:      nav.DefaultLookSpeed,
		MinimapSize:    minimap.DefaultMapSize,
		MinimapScale:   minimap.DefaultMapScale,
		FetchTimeout:   layout.DefaultFetchTimeout,
		TextureTimeout: texture.DefaultTimeout,
		TextureMaxSide: texture.DefaultMaxSide,
		ServicePort:    "3000",
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		BodyLimit:      4 << 20,
	}
}

// Load returns defaults overridden by the environment.
func Load() Config {
	c := Default()
	c.LayoutDir = getEnv("VENUE_LAYOUT_DIR", c.LayoutDir)
	c.LayoutURL = getEnv("VENUE_LAYOUT_URL", c.LayoutURL)
	c.LayoutDB = getEnv("VENUE_LAYOUT_DB", c.LayoutDB)
	c.LayoutID = getEnv("VENUE_LAYOUT_ID", c.LayoutID)
	c.WindowWidth = getEnvAsInt("VENUE_WINDOW_WIDTH", c.WindowWidth)
	c.WindowHeight = getEnvAsInt("VENUE_WINDOW_HEIGHT", c.WindowHeight)
	c.WalkSpeed = getEnvAsFloat("VENUE_WALK_SPEED", c.WalkSpeed)
	c.LookSpeed = getEnvAsFloat("VENUE_LOOK_SPEED", c.LookSpeed)
	c.MinimapSize = getEnvAsInt("VENUE_MINIMAP_SIZE", c.MinimapSize)
	c.MinimapScale = getEnvAsFloat("VENUE_MINIMAP_SCALE", c.MinimapScale)
	c.FetchTimeout = getEnvAsDuration("VENUE_FETCH_TIMEOUT", c.FetchTimeout)
	c.TextureTimeout = getEnvAsDuration("VENUE_TEXTURE_TIMEOUT", c.TextureTimeout)
	c.TextureMaxSide = getEnvAsInt("VENUE_TEXTURE_MAX_SIDE", c.TextureMaxSide)
	c.ServicePort = getEnv("PORT", c.ServicePort)
	c.ReadTimeout = getEnvAsDuration("VENUE_READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = getEnvAsDuration("VENUE_WRITE_TIMEOUT", c.WriteTimeout)
	c.BodyLimit = getEnvAsInt("VENUE_BODY_LIMIT", c.BodyLimit)
	return c.Normalize()
}

// BindFlags registers flags that override c in place.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.LayoutDir, "layouts", c.LayoutDir, "directory of layout JSON records")
	fs.StringVar(&c.LayoutURL, "layout-url", c.LayoutURL, "base URL of a layout API (overrides -layouts)")
	fs.StringVar(&c.LayoutDB, "layout-db", c.LayoutDB, "sqlite database of layout records (overrides -layouts and -layout-url)")
	fs.StringVar(&c.LayoutID, "layout-id", c.LayoutID, "open this layout directly")
	fs.IntVar(&c.WindowWidth, "width", c.WindowWidth, "window width")
	fs.IntVar(&c.WindowHeight, "height", c.WindowHeight, "window height")
	fs.Float64Var(&c.WalkSpeed, "walk-speed", c.WalkSpeed, "walk speed in world units per second (0.5-5)")
	fs.Float64Var(&c.LookSpeed, "look-speed", c.LookSpeed, "look sensitivity (0.1-1)")
	fs.IntVar(&c.MinimapSize, "minimap-size", c.MinimapSize, "minimap side in pixels")
	fs.Float64Var(&c.MinimapScale, "minimap-scale", c.MinimapScale, "minimap scale per world unit, as a fraction of its size")
	fs.DurationVar(&c.FetchTimeout, "fetch-timeout", c.FetchTimeout, "layout fetch timeout")
	fs.DurationVar(&c.TextureTimeout, "texture-timeout", c.TextureTimeout, "floor image load timeout")
	fs.StringVar(&c.ServicePort, "port", c.ServicePort, "scene service port")
}

// Normalize clamps values into their valid ranges.
func (c Config) Normalize() Config {
	c.WalkSpeed = nav.ClampWalkSpeed(c.WalkSpeed)
	c.LookSpeed = nav.ClampLookSpeed(c.LookSpeed)
	if c.WindowWidth < 320 {
		c.WindowWidth = 320
	}
	if c.WindowHeight < 240 {
		c.WindowHeight = 240
	}
	c.MinimapSize = minimap.ClampMapSize(c.MinimapSize)
	if c.MinimapScale <= 0 {
		c.MinimapScale = minimap.DefaultMapScale
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = layout.DefaultFetchTimeout
	}
	if c.TextureTimeout <= 0 {
		c.TextureTimeout = texture.DefaultTimeout
	}
	if c.TextureMaxSide <= 0 {
		c.TextureMaxSide = texture.DefaultMaxSide
	}
	return c
}

// Camera returns the starting camera with the configured speeds.
func (c Config) Camera() nav.CameraState {
	cam := nav.DefaultCamera()
	cam.WalkSpeed = nav.ClampWalkSpeed(c.WalkSpeed)
	cam.LookSpeed = nav.ClampLookSpeed(c.LookSpeed)
	return cam
}

// Minimap returns the initial minimap state.
func (c Config) Minimap() minimap.State {
	return minimap.State{Visible: true, MapSize: c.MinimapSize, MapScale: c.MinimapScale}
}

// Textures builds the floor texture provisioner.
func (c Config) Textures(logf func(string, ...any)) *texture.Provisioner {
	loader := texture.RefLoader{Client: &http.Client{Timeout: c.TextureTimeout}}
	return texture.NewProvisioner(loader,
		texture.WithTimeout(c.TextureTimeout),
		texture.WithMaxSide(c.TextureMaxSide),
		texture.WithLogf(logf),
	)
}

// ErrNoSource is returned when no layout source is configured.
var ErrNoSource = errors.New("config: no layout source configured")

// OpenSource opens the configured layout source. The returned closer must be
// closed when the source is no longer needed.
func (c Config) OpenSource(ctx context.Context) (layout.Source, io.Closer, error) {
	switch {
	case c.LayoutDB != "":
		s, err := layout.OpenSQLite(ctx, c.LayoutDB)
		if err != nil {
			return nil, nil, fmt.Errorf("open layout db: %w", err)
		}
		return s, s, nil
	case c.LayoutURL != "":
		return layout.NewHTTPSource(c.LayoutURL, &http.Client{Timeout: c.FetchTimeout}), noopCloser{}, nil
	case c.LayoutDir != "":
		return layout.NewFileSource(c.LayoutDir), noopCloser{}, nil
	}
	return nil, nil, ErrNoSource
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// getEnvAsDuration accepts Go durations ("8s") or whole seconds ("8").
func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}
