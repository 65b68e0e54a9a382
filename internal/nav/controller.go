package nav

import (
	"errors"
	"fmt"
	"math"
)

// State is the controller's capture state.
type State int

const (
	Idle   State = iota // no exclusive pointer capture; camera frozen
	Active              // capture held (or degraded on-screen mode); camera moves
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// Mode is how look input arrives while Active.
type Mode int

const (
	ModePointer  Mode = iota // captured pointer deltas
	ModeOnScreen             // keys and on-screen buttons; capture unavailable
)

func (m Mode) String() string {
	if m == ModeOnScreen {
		return "on-screen"
	}
	return "pointer"
}

// Look rates at LookSpeed 1.0.
const (
	pointerLookRate = 0.004 // radians per pointer pixel
	keyLookRate     = 2.0   // radians per second
	// MaxFrameDelta caps a single integration step so a stalled frame does
	// not teleport the camera.
	MaxFrameDelta = 0.1
)

// Input is one frame of navigation intent, already decoupled from any
// particular windowing library.
type Input struct {
	Forward, Back, Left, Right bool

	// LookDX/LookDY are pointer deltas in pixels, used in ModePointer.
	LookDX, LookDY float64

	// Turn* are held look keys or on-screen buttons, used in either mode.
	TurnLeft, TurnRight, TurnUp, TurnDown bool

	// Release asks to leave Active (escape key).
	Release bool
}

// Capture is the platform's exclusive pointer capture.
type Capture interface {
	Acquire() error
	// Release must be safe to call when capture is not held.
	Release()
}

// InputSource delivers per-frame input until detached.
type InputSource interface {
	Poll() Input
	Detach()
}

// ErrClosed is returned by Engage after Close.
var ErrClosed = errors.New("nav: controller closed")

// ErrUnsupported marks a capability the platform does not offer.
var ErrUnsupported = errors.New("unsupported")

// CapabilityError reports a missing platform capability. Callers degrade the
// interaction mode instead of failing.
type CapabilityError struct {
	Capability string
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %s unavailable: %v", e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// IsCapabilityError reports whether err wraps a *CapabilityError.
func IsCapabilityError(err error) bool {
	var ce *CapabilityError
	return errors.As(err, &ce)
}

// Controller owns the camera for one walkthrough session and is its only
// writer. Use it from the render-loop goroutine only.
type Controller struct {
	cam      CameraState
	state    State
	mode     Mode
	captured bool
	closed   bool
	capture  Capture
	input    InputSource
}

// NewController creates an idle controller. capture and input may be nil:
// a nil capture always degrades to on-screen mode.
func NewController(start CameraState, capture Capture, input InputSource) *Controller {
	start.WalkSpeed = ClampWalkSpeed(start.WalkSpeed)
	start.LookSpeed = ClampLookSpeed(start.LookSpeed)
	start.Pitch = clamp(start.Pitch, -MaxPitch, MaxPitch)
	return &Controller{cam: start, capture: capture, input: input}
}

// Camera returns a copy of the current camera.
func (c *Controller) Camera() CameraState { return c.cam }

// State returns Idle or Active.
func (c *Controller) State() State { return c.state }

// Mode reports how look input is interpreted.
func (c *Controller) Mode() Mode { return c.mode }

// Captured reports whether exclusive pointer capture is currently held.
func (c *Controller) Captured() bool { return c.captured }

// Engage moves Idle to Active. If pointer capture cannot be acquired the
// controller still becomes Active in ModeOnScreen and the returned
// *CapabilityError tells the caller to show on-screen controls.
func (c *Controller) Engage() error {
	if c.closed {
		return ErrClosed
	}
	if c.state == Active {
		return nil
	}
	c.state = Active
	if c.capture == nil {
		c.mode = ModeOnScreen
		return &CapabilityError{Capability: "pointer-capture", Err: ErrUnsupported}
	}
	if err := c.capture.Acquire(); err != nil {
		c.mode = ModeOnScreen
		return &CapabilityError{Capability: "pointer-capture", Err: err}
	}
	c.mode = ModePointer
	c.captured = true
	return nil
}

// Disengage moves Active to Idle and releases capture.
func (c *Controller) Disengage() {
	if c.captured {
		c.capture.Release()
		c.captured = false
	}
	c.state = Idle
}

// SetWalkSpeed adjusts walk speed at runtime, clamped to its range.
func (c *Controller) SetWalkSpeed(v float64) { c.cam.WalkSpeed = ClampWalkSpeed(v) }

// SetLookSpeed adjusts look speed at runtime, clamped to its range.
func (c *Controller) SetLookSpeed(v float64) { c.cam.LookSpeed = ClampLookSpeed(v) }

// Tick polls the attached input source and integrates one frame.
func (c *Controller) Tick(dt float64) CameraState {
	if c.closed || c.input == nil {
		return c.cam
	}
	return c.Step(dt, c.input.Poll())
}

// Step integrates one frame of input over dt seconds. While Idle the camera
// does not move. Motion is not obstructed by scene geometry.
func (c *Controller) Step(dt float64, in Input) CameraState {
	if c.closed {
		return c.cam
	}
	if in.Release && c.state == Active {
		c.Disengage()
	}
	if c.state != Active {
		return c.cam
	}
	if math.IsNaN(dt) || dt < 0 {
		dt = 0
	}
	dt = math.Min(dt, MaxFrameDelta)

	// Look.
	look := c.cam.LookSpeed
	if c.mode == ModePointer {
		c.cam.Yaw -= in.LookDX * pointerLookRate * look
		c.cam.Pitch -= in.LookDY * pointerLookRate * look
	}
	turn := keyLookRate * look * dt
	c.cam.Yaw += turn * (axis(in.TurnLeft) - axis(in.TurnRight))
	c.cam.Pitch += turn * (axis(in.TurnUp) - axis(in.TurnDown))
	c.cam.Pitch = clamp(c.cam.Pitch, -MaxPitch, MaxPitch)
	c.cam.Yaw = wrapAngle(c.cam.Yaw)

	// Walk on the floor plane; diagonals are not faster than straight lines.
	fwd := axis(in.Forward) - axis(in.Back)
	side := axis(in.Right) - axis(in.Left)
	if fwd != 0 || side != 0 {
		fx, fz := c.cam.Forward()
		rx, rz := c.cam.Right()
		mx := fx*fwd + rx*side
		mz := fz*fwd + rz*side
		l := math.Hypot(mx, mz)
		step := c.cam.WalkSpeed * dt / l
		c.cam.Position.X += mx * step
		c.cam.Position.Z += mz * step
	}
	c.cam.Position.Y = EyeHeight
	return c.cam
}

// Close ends the session: it releases pointer capture and detaches input
// regardless of state. Close is idempotent.
func (c *Controller) Close() {
	if c.capture != nil {
		c.capture.Release()
	}
	c.captured = false
	if c.input != nil {
		c.input.Detach()
		c.input = nil
	}
	c.state = Idle
	c.closed = true
}

func axis(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// wrapAngle keeps yaw in (-pi, pi] so it cannot grow without bound.
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
