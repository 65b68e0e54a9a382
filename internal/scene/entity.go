package scene

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

// Vec3 is a world-space point or extent. Y is up; the floor is the X/Z plane.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v+o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v-o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v*s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Kind discriminates the two entity variants.
type Kind int

const (
	KindWall Kind = iota
	KindFurniture
)

func (k Kind) String() string {
	switch k {
	case KindWall:
		return "wall"
	case KindFurniture:
		return "furniture"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Entity is one derived scene object. Every renderer (walkthrough, minimap,
// immersive preview, HTTP consumers) reads geometry through this interface and
// never re-derives classification from the raw drawing.
type Entity interface {
	Kind() Kind
	// Center is the box centre in world units; Center().Y is half the box height.
	Center() Vec3
	// Size is the box extent: X = width, Y = height, Z = depth.
	Size() Vec3
	// Rotation is the yaw about the vertical axis in radians.
	Rotation() float64
	Tint() color.RGBA
	Caption() string
}

// Wall is a full-height partition derived from a wall or elongated rect.
type Wall struct {
	Position    Vec3    `json:"position"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Depth       float64 `json:"depth"`
	RotationRad float64 `json:"rotationRad"`
	Color       string  `json:"color"`
}

func (w Wall) Kind() Kind { return KindWall }
func (w Wall) Center() Vec3 { return w.Position }
func (w Wall) Size() Vec3 { return Vec3{w.Width, w.Height, w.Depth} }
func (w Wall) Rotation() float64 { return w.RotationRad }
func (w Wall) Tint() color.RGBA { return ParseColor(w.Color, defaultWallRGBA) }
func (w Wall) Caption() string { return "" }

// FurnitureItem is anything that is not a wall: tables, chairs, round items,
// and generic rects.
type FurnitureItem struct {
	Position    Vec3       `json:"position"`
	Dimensions  [3]float64 `json:"dimensions"` // width, height, depth
	RotationRad float64    `json:"rotationRad"`
	Color       string     `json:"color"`
	Label       string     `json:"label,omitempty"`
	SourceType  string     `json:"sourceType"`
}

func (f FurnitureItem) Kind() Kind { return KindFurniture }
func (f FurnitureItem) Center() Vec3 { return f.Position }
func (f FurnitureItem) Rotation() float64 { return f.RotationRad }
func (f FurnitureItem) Tint() color.RGBA { return ParseColor(f.Color, defaultFurnitureRGBA) }
func (f FurnitureItem) Caption() string { return f.Label }

func (f FurnitureItem) Size() Vec3 {
	return Vec3{f.Dimensions[0], f.Dimensions[1], f.Dimensions[2]}
}

var (
	defaultWallRGBA      = color.RGBA{R: 0xd9, G: 0xd4, B: 0xc7, A: 0xff}
	defaultFurnitureRGBA = color.RGBA{R: 0x8b, G: 0x73, B: 0x55, A: 0xff}
)

// RotateXZ rotates (x, z) about the vertical axis by rad. Positive yaw turns
// +X toward -Z, matching the camera's yaw convention.
func RotateXZ(x, z, rad float64) (float64, float64) {
	s, c := math.Sincos(rad)
	return x*c + z*s, -x*s + z*c
}

// Footprint returns the four floor-plane corners (X, Z) of an entity's box in
// winding order, with its rotation applied.
func Footprint(e Entity) [4][2]float64 {
	c := e.Center()
	sz := e.Size()
	hw, hd := sz.X/2, sz.Z/2
	local := [4][2]float64{{-hw, -hd}, {hw, -hd}, {hw, hd}, {-hw, hd}}
	var out [4][2]float64
	for i, p := range local {
		rx, rz := RotateXZ(p[0], p[1], e.Rotation())
		out[i] = [2]float64{c.X + rx, c.Z + rz}
	}
	return out
}

// ParseColor reads any CSS colour: hex forms, rgb(a), hsl(a), hwb and the
// named colours. Anything unparseable yields fallback.
func ParseColor(s string, fallback color.RGBA) color.RGBA {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return fallback
	}
	r, g, b, a := c.RGBA255()
	return premultiply(r, g, b, a)
}

// premultiply converts straight alpha channels into color.RGBA's
// premultiplied form.
func premultiply(r, g, b, a uint8) color.RGBA {
	m := func(c uint8) uint8 { return uint8(uint16(c) * uint16(a) / 0xff) }
	return color.RGBA{R: m(r), G: m(g), B: m(b), A: a}
}
