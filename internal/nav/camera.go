package nav

import (
	"math"

	"github.com/Garsondee/Venue-Walkthrough/internal/scene"
)

// Speed ranges and defaults. Walk speed is world units per second; look speed
// scales pointer and key turning.
const (
	MinWalkSpeed     = 0.5
	MaxWalkSpeed     = 5.0
	DefaultWalkSpeed = 2.0

	MinLookSpeed     = 0.1
	MaxLookSpeed     = 1.0
	DefaultLookSpeed = 0.5
)

// Camera geometry.
const (
	EyeHeight = 1.6
	// MaxPitch keeps vertical look short of straight up or down so the view
	// never flips over.
	MaxPitch = 85 * math.Pi / 180
)

// CameraState is the first-person camera. The Controller is its only writer;
// everyone else receives copies.
type CameraState struct {
	Position  scene.Vec3
	Yaw       float64 // radians; 0 looks down -Z, positive turns left
	Pitch     float64 // radians; positive looks up
	WalkSpeed float64
	LookSpeed float64
}

// DefaultCamera stands at eye height a few units back from the venue centre,
// looking toward it.
func DefaultCamera() CameraState {
	return CameraState{
		Position:  scene.Vec3{X: 0, Y: EyeHeight, Z: 5},
		WalkSpeed: DefaultWalkSpeed,
		LookSpeed: DefaultLookSpeed,
	}
}

// Forward is the unit heading on the floor plane.
func (c CameraState) Forward() (x, z float64) {
	return scene.RotateXZ(0, -1, c.Yaw)
}

// Right is the unit strafe direction on the floor plane.
func (c CameraState) Right() (x, z float64) {
	return scene.RotateXZ(1, 0, c.Yaw)
}

// HeadingDegrees is a compass-style heading in [0, 360) for display.
func (c CameraState) HeadingDegrees() float64 {
	d := math.Mod(360-c.Yaw*180/math.Pi, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// ClampWalkSpeed limits v to the walk-speed range.
func ClampWalkSpeed(v float64) float64 {
	return clamp(v, MinWalkSpeed, MaxWalkSpeed)
}

// ClampLookSpeed limits v to the look-speed range.
func ClampLookSpeed(v float64) float64 {
	return clamp(v, MinLookSpeed, MaxLookSpeed)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
