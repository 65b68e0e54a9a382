package minimap

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"
)

// Palette.
var (
	backgroundColor = color.RGBA{R: 12, G: 14, B: 16, A: 200}
	venueColor      = color.RGBA{R: 58, G: 62, B: 66, A: 230}
	venueEdgeColor  = color.RGBA{R: 120, G: 126, B: 132, A: 255}
	markerColor     = color.RGBA{R: 230, G: 60, B: 50, A: 255}
	markerRing      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Rasterize paints ov into a new image.
func Rasterize(ov Overlay) *image.RGBA {
	n := ov.Size
	if n < 0 {
		n = 0
	}
	dst := image.NewRGBA(image.Rect(0, 0, n, n))
	RasterizeInto(dst, ov)
	return dst
}

// RasterizeInto clears dst and paints ov into it. dst is reused across frames
// by the window so the overview costs no allocation per frame.
func RasterizeInto(dst *image.RGBA, ov Overlay) {
	draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
	if !ov.Visible || ov.Size <= 0 {
		return
	}
	b := dst.Bounds()
	draw.Draw(dst, b, image.NewUniform(backgroundColor), image.Point{}, draw.Over)

	p := &painter{dst: dst, z: vector.NewRasterizer(b.Dx(), b.Dy())}
	p.poly(ov.Venue[:], venueColor)
	p.outline(ov.Venue[:], 1, venueEdgeColor)
	for _, s := range ov.Shapes {
		p.poly(s.Corners[:], s.Fill)
	}

	m := ov.Marker
	p.disc(m.At, 4, markerRing)
	p.disc(m.At, 3, markerColor)
	h := m.Heading()
	left := Point{X: m.At.X + 4*math.Cos(h+math.Pi/2), Y: m.At.Y + 4*math.Sin(h+math.Pi/2)}
	right := Point{X: m.At.X + 4*math.Cos(h-math.Pi/2), Y: m.At.Y + 4*math.Sin(h-math.Pi/2)}
	p.poly([]Point{left, m.Tip, right}, markerColor)
}

// EncodePNG rasterizes ov and writes it as PNG.
func EncodePNG(w io.Writer, ov Overlay) error {
	return png.Encode(w, Rasterize(ov))
}

type painter struct {
	dst *image.RGBA
	z   *vector.Rasterizer
}

// poly fills a convex or simple polygon, clipped to the map square.
func (p *painter) poly(pts []Point, c color.RGBA) {
	b := p.dst.Bounds()
	pts = clipToRect(pts, float64(b.Dx()), float64(b.Dy()))
	if len(pts) < 3 {
		return
	}
	p.z.Reset(b.Dx(), b.Dy())
	p.z.DrawOp = draw.Over
	p.z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, q := range pts[1:] {
		p.z.LineTo(float32(q.X), float32(q.Y))
	}
	p.z.ClosePath()
	p.z.Draw(p.dst, b, image.NewUniform(c), image.Point{})
}

// outline strokes a closed polygon as thin quads.
func (p *painter) outline(pts []Point, width float64, c color.RGBA) {
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*width/2, dx/l*width/2
		p.poly([]Point{
			{a.X + nx, a.Y + ny}, {b.X + nx, b.Y + ny},
			{b.X - nx, b.Y - ny}, {a.X - nx, a.Y - ny},
		}, c)
	}
}

func (p *painter) disc(at Point, r float64, c color.RGBA) {
	const segs = 16
	pts := make([]Point, segs)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / segs
		pts[i] = Point{X: at.X + r*math.Cos(a), Y: at.Y + r*math.Sin(a)}
	}
	p.poly(pts, c)
}

// clipToRect clips a polygon to [0,w]x[0,h] one edge at a time.
func clipToRect(pts []Point, w, h float64) []Point {
	edges := []struct {
		inside func(Point) bool
		cross  func(a, b Point) Point
	}{
		{func(p Point) bool { return p.X >= 0 }, func(a, b Point) Point { return atX(a, b, 0) }},
		{func(p Point) bool { return p.X <= w }, func(a, b Point) Point { return atX(a, b, w) }},
		{func(p Point) bool { return p.Y >= 0 }, func(a, b Point) Point { return atY(a, b, 0) }},
		{func(p Point) bool { return p.Y <= h }, func(a, b Point) Point { return atY(a, b, h) }},
	}
	out := pts
	for _, e := range edges {
		if len(out) == 0 {
			break
		}
		in := out
		out = make([]Point, 0, len(in)+2)
		prev := in[len(in)-1]
		for _, cur := range in {
			switch {
			case e.inside(cur) && e.inside(prev):
				out = append(out, cur)
			case e.inside(cur):
				out = append(out, e.cross(prev, cur), cur)
			case e.inside(prev):
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
	}
	return out
}

func atX(a, b Point, x float64) Point {
	t := (x - a.X) / (b.X - a.X)
	return Point{X: x, Y: a.Y + t*(b.Y-a.Y)}
}

func atY(a, b Point, y float64) Point {
	t := (y - a.Y) / (b.Y - a.Y)
	return Point{X: a.X + t*(b.X-a.X), Y: y}
}
