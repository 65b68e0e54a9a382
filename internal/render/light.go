package render

import (
	"image/color"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Light is one ambient term plus one directional light. Dir points from the
// scene toward the light.
type Light struct {
	Ambient     float64
	Directional float64
	Dir         mgl64.Vec3
}

// DefaultLight is a high sun slightly off axis.
func DefaultLight() Light {
	return Light{
		Ambient:     0.5,
		Directional: 0.6,
		Dir:         mgl64.Vec3{0.35, 1, 0.25}.Normalize(),
	}
}

// Shade returns the Lambert intensity for a surface normal.
func (l Light) Shade(n mgl64.Vec3) float64 {
	s := l.Ambient + l.Directional*math.Max(0, n.Dot(l.Dir))
	return math.Min(1, s)
}

func shadeColor(c color.RGBA, s float64) color.RGBA {
	m := func(v uint8) uint8 { return uint8(math.Round(float64(v) * s)) }
	return color.RGBA{R: m(c.R), G: m(c.G), B: m(c.B), A: c.A}
}

// shadowOutline projects a box's corners along the light onto the floor and
// returns the convex hull in floor (X, Z) coordinates.
func (l Light) shadowOutline(corners [8]mgl64.Vec3) [][2]float64 {
	if l.Dir.Y() <= 0 {
		return nil
	}
	pts := make([][2]float64, 0, len(corners))
	for _, c := range corners {
		g := c.Sub(l.Dir.Mul(c.Y() / l.Dir.Y()))
		pts = append(pts, [2]float64{g.X(), g.Z()})
	}
	return convexHull(pts)
}

// convexHull is Andrew's monotone chain.
func convexHull(pts [][2]float64) [][2]float64 {
	if len(pts) < 3 {
		return pts
	}
	p := append([][2]float64(nil), pts...)
	sort.Slice(p, func(i, j int) bool {
		if p[i][0] != p[j][0] {
			return p[i][0] < p[j][0]
		}
		return p[i][1] < p[j][1]
	})
	cross := func(o, a, b [2]float64) float64 {
		return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
	}
	hull := make([][2]float64, 0, 2*len(p))
	for _, q := range p {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], q) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, q)
	}
	lower := len(hull) + 1
	for i := len(p) - 2; i >= 0; i-- {
		q := p[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], q) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, q)
	}
	return hull[:len(hull)-1]
}
