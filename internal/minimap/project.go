// Package minimap projects the scene graph and the live camera onto a
// fixed-size top-down overview. Projection is pure: the overview holds no
// position of its own, so it is recomputed from the camera every frame.
package minimap

import (
	"image/color"
	"math"

	"github.com/Garsondee/Venue-Walkthrough/internal/nav"
	"github.com/Garsondee/Venue-Walkthrough/internal/scene"
)

// Display defaults. MapScale is cosmetic and unrelated to the plan-to-world
// scale used when building the scene.
const (
	DefaultMapSize  = 200
	DefaultMapScale = 0.05
)

// Bounds on the overview side in pixels.
const (
	MinMapSize = 50
	MaxMapSize = 1024
)

// ClampMapSize keeps n within [MinMapSize, MaxMapSize].
func ClampMapSize(n int) int {
	return max(MinMapSize, min(n, MaxMapSize))
}

// State is the user-toggled minimap configuration.
type State struct {
	Visible  bool
	MapSize  int     // side of the square overview in pixels
	MapScale float64 // fraction of MapSize per world unit
}

// DefaultState is a visible 200px map at 10px per world unit.
func DefaultState() State {
	return State{Visible: true, MapSize: DefaultMapSize, MapScale: DefaultMapScale}
}

// Toggled returns s with visibility flipped.
func (s State) Toggled() State {
	s.Visible = !s.Visible
	return s
}

// ToMap converts a world floor position to map pixels: world X runs
// horizontally, world Z vertically, the world origin sits at the map centre.
func (s State) ToMap(x, z float64) Point {
	c := float64(s.MapSize) / 2
	k := s.MapScale * float64(s.MapSize)
	return Point{X: c + x*k, Y: c + z*k}
}

// Point is a map pixel position.
type Point struct{ X, Y float64 }

// Shape is one projected entity footprint.
type Shape struct {
	Kind    scene.Kind
	Corners [4]Point
	Fill    color.RGBA
}

// Marker is the camera: its map position and the tip of its heading arrow.
type Marker struct {
	At  Point
	Tip Point
}

// Overlay is everything needed to paint one minimap frame.
type Overlay struct {
	Visible bool
	Size    int
	Venue   [4]Point
	Shapes  []Shape
	Marker  Marker
}

// markerLength is the heading arrow length in pixels.
const markerLength = 9.0

// Project maps graph and cam into overview space. A hidden minimap yields an
// empty overlay.
func Project(g *scene.Graph, cam nav.CameraState, st State) Overlay {
	if !st.Visible || st.MapSize <= 0 {
		return Overlay{Size: st.MapSize}
	}
	ov := Overlay{Visible: true, Size: st.MapSize}
	if g == nil {
		ov.Marker = projectMarker(cam, st)
		return ov
	}

	hw, hl := g.VenueWidth/2, g.VenueLength/2
	ov.Venue = [4]Point{st.ToMap(-hw, -hl), st.ToMap(hw, -hl), st.ToMap(hw, hl), st.ToMap(-hw, hl)}

	ov.Shapes = make([]Shape, 0, len(g.Walls)+len(g.Furniture))
	// Furniture first so walls are painted over it.
	for _, f := range g.Furniture {
		ov.Shapes = append(ov.Shapes, project(f, st))
	}
	for _, w := range g.Walls {
		ov.Shapes = append(ov.Shapes, project(w, st))
	}
	ov.Marker = projectMarker(cam, st)
	return ov
}

func project(e scene.Entity, st State) Shape {
	var sh Shape
	sh.Kind = e.Kind()
	sh.Fill = e.Tint()
	sh.Fill.A = 0xff
	for i, c := range scene.Footprint(e) {
		sh.Corners[i] = st.ToMap(c[0], c[1])
	}
	return sh
}

func projectMarker(cam nav.CameraState, st State) Marker {
	at := st.ToMap(cam.Position.X, cam.Position.Z)
	fx, fz := cam.Forward()
	return Marker{At: at, Tip: Point{X: at.X + fx*markerLength, Y: at.Y + fz*markerLength}}
}

// Heading returns the marker direction in map space as an angle in radians.
func (m Marker) Heading() float64 {
	return math.Atan2(m.Tip.Y-m.At.Y, m.Tip.X-m.At.X)
}
