package walk

import (
	"context"
	"errors"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Venue-Walkthrough/internal/nav"
	"github.com/Garsondee/Venue-Walkthrough/internal/scene"
)

// Fullscreen is the platform's fullscreen presentation.
type Fullscreen interface {
	SetFullscreen(on bool) error
	IsFullscreen() bool
}

// ImmersivePresenter hands the scene graph to an AR/VR preview. The preview
// consumes the same graph as the walkthrough and never reclassifies shapes.
type ImmersivePresenter interface {
	Present(ctx context.Context, g *scene.Graph) error
}

// Clipboard receives copied text.
type Clipboard interface {
	WriteAll(text string) error
}

// Platform bundles the capabilities a session may use. Nil members are
// treated as unsupported.
type Platform struct {
	Capture    nav.Capture
	Fullscreen Fullscreen
	Immersive  ImmersivePresenter
	Clipboard  Clipboard
}

// DesktopPlatform is the ebiten window's platform.
func DesktopPlatform() Platform {
	return Platform{
		Capture:    cursorCapture{},
		Fullscreen: windowFullscreen{},
		Immersive:  NoImmersive{},
		Clipboard:  SystemClipboard{},
	}
}

var errCaptureRefused = errors.New("cursor capture refused")

// cursorCapture captures the mouse cursor through ebiten.
type cursorCapture struct{}

func (cursorCapture) Acquire() error {
	ebiten.SetCursorMode(ebiten.CursorModeCaptured)
	if ebiten.CursorMode() != ebiten.CursorModeCaptured {
		return errCaptureRefused
	}
	return nil
}

func (cursorCapture) Release() {
	ebiten.SetCursorMode(ebiten.CursorModeVisible)
}

type windowFullscreen struct{}

func (windowFullscreen) SetFullscreen(on bool) error {
	ebiten.SetFullscreen(on)
	return nil
}

func (windowFullscreen) IsFullscreen() bool { return ebiten.IsFullscreen() }

// NoImmersive reports that no immersive device is present.
type NoImmersive struct{}

func (NoImmersive) Present(context.Context, *scene.Graph) error {
	return &nav.CapabilityError{Capability: "immersive", Err: nav.ErrUnsupported}
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return &nav.CapabilityError{Capability: "clipboard", Err: nav.ErrUnsupported}
	}
	return clipboard.WriteAll(text)
}

// releaseCapture releases c if present; Release is safe when not held.
func releaseCapture(c nav.Capture) {
	if c != nil {
		c.Release()
	}
}
