package walk

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/Garsondee/Venue-Walkthrough/internal/nav"
)

// Actions are edge-triggered view commands for one frame.
type Actions struct {
	Engage           bool // click into the view or Enter
	ToggleMinimap    bool // M
	ToggleFullscreen bool // F
	Immersive        bool // I
	Copy             bool // C
	Back             bool // Backspace
	WalkFaster       bool // ]
	WalkSlower       bool // [
	LookFaster       bool // '
	LookSlower       bool // ;
}

// InputDevice is the per-session input: continuous navigation input plus
// discrete actions. Detach stops both.
type InputDevice interface {
	nav.InputSource
	Actions() Actions
}

// lookPad is the on-screen look control shown when pointer capture is
// unavailable. Rectangles are in screen pixels.
type lookPad struct {
	Visible               bool
	Left, Right, Up, Down image.Rectangle
}

func newLookPad(w, h int) lookPad {
	const size, gap = 44, 6
	cx := w - 2*size - gap - 16
	cy := h - 2*size - gap - 16
	return lookPad{
		Left:  image.Rect(cx-size-gap, cy, cx-gap, cy+size),
		Right: image.Rect(cx+size+gap, cy, cx+2*size+gap, cy+size),
		Up:    image.Rect(cx, cy-size-gap, cx+size, cy-gap),
		Down:  image.Rect(cx, cy+size+gap, cx+size, cy+2*size+gap),
	}
}

func (p lookPad) contains(pt image.Point) bool {
	if !p.Visible {
		return false
	}
	return pt.In(p.Left) || pt.In(p.Right) || pt.In(p.Up) || pt.In(p.Down)
}

// ebitenDevice reads the keyboard and mouse through ebiten.
type ebitenDevice struct {
	pad      *lookPad
	prevX    int
	prevY    int
	primed   bool
	detached bool
}

func newEbitenDevice(pad *lookPad) *ebitenDevice {
	return &ebitenDevice{pad: pad}
}

// Poll implements nav.InputSource.
func (d *ebitenDevice) Poll() nav.Input {
	if d.detached {
		return nav.Input{}
	}
	in := nav.Input{
		Forward:   ebiten.IsKeyPressed(ebiten.KeyW),
		Back:      ebiten.IsKeyPressed(ebiten.KeyS),
		Left:      ebiten.IsKeyPressed(ebiten.KeyA),
		Right:     ebiten.IsKeyPressed(ebiten.KeyD),
		TurnLeft:  ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		TurnRight: ebiten.IsKeyPressed(ebiten.KeyArrowRight),
		TurnUp:    ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		TurnDown:  ebiten.IsKeyPressed(ebiten.KeyArrowDown),
		Release:   inpututil.IsKeyJustPressed(ebiten.KeyEscape),
	}

	x, y := ebiten.CursorPosition()
	if ebiten.CursorMode() == ebiten.CursorModeCaptured {
		if d.primed {
			in.LookDX = float64(x - d.prevX)
			in.LookDY = float64(y - d.prevY)
		}
		d.primed = true
	} else {
		d.primed = false
	}
	d.prevX, d.prevY = x, y

	if d.pad != nil && d.pad.Visible && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		pt := image.Pt(x, y)
		in.TurnLeft = in.TurnLeft || pt.In(d.pad.Left)
		in.TurnRight = in.TurnRight || pt.In(d.pad.Right)
		in.TurnUp = in.TurnUp || pt.In(d.pad.Up)
		in.TurnDown = in.TurnDown || pt.In(d.pad.Down)
	}
	return in
}

// Actions implements InputDevice.
func (d *ebitenDevice) Actions() Actions {
	if d.detached {
		return Actions{}
	}
	just := inpututil.IsKeyJustPressed
	click := false
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		click = d.pad == nil || !d.pad.contains(image.Pt(x, y))
	}
	return Actions{
		Engage:           click || just(ebiten.KeyEnter),
		ToggleMinimap:    just(ebiten.KeyM),
		ToggleFullscreen: just(ebiten.KeyF),
		Immersive:        just(ebiten.KeyI),
		Copy:             just(ebiten.KeyC),
		Back:             just(ebiten.KeyBackspace),
		WalkFaster:       just(ebiten.KeyBracketRight),
		WalkSlower:       just(ebiten.KeyBracketLeft),
		LookFaster:       just(ebiten.KeyQuote),
		LookSlower:       just(ebiten.KeySemicolon),
	}
}

// Detach implements nav.InputSource.
func (d *ebitenDevice) Detach() { d.detached = true }
