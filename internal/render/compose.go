package render

import (
	"image/color"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Garsondee/Venue-Walkthrough/internal/nav"
	"github.com/Garsondee/Venue-Walkthrough/internal/scene"
)

// Projection defaults.
const (
	DefaultFOV  = 75 * math.Pi / 180 // vertical
	DefaultNear = 0.05
	// GridTile is the floor span in world units covered by one repeat of a
	// repeating floor texture.
	GridTile = 4.0
)

// Palette.
var (
	skyTop      = color.RGBA{R: 0x6f, G: 0xa8, B: 0xdc, A: 0xff}
	skyHorizon  = color.RGBA{R: 0xd8, G: 0xe8, B: 0xf4, A: 0xff}
	groundColor = color.RGBA{R: 0x4a, G: 0x4f, B: 0x4a, A: 0xff}
	shadowColor = color.RGBA{A: 0x50}
)

// Vertex is a screen-space vertex. U and V are normalized texture
// coordinates and are only meaningful for floor polygons.
type Vertex struct {
	X, Y float32
	U, V float32
}

// Polygon is a convex screen-space polygon ready to paint as a triangle fan.
// For floor polygons Color is the shading multiplier applied to the texture.
type Polygon struct {
	Verts []Vertex
	Color color.RGBA
	Depth float64
}

// Sky is a vertical gradient that meets Ground at HorizonY.
type Sky struct {
	Top, Horizon, Ground color.RGBA
	HorizonY             float64
}

// Frame is one composed view, in paint order: sky, floor, shadows, faces.
// Faces are sorted farthest first.
type Frame struct {
	Width, Height int
	Sky           Sky
	Floor         []Polygon
	Shadows       []Polygon
	Faces         []Polygon
}

// Options configure projection and lighting.
type Options struct {
	FOV   float64
	Near  float64
	Light Light
}

// DefaultOptions returns a 75 degree view with the default sun.
func DefaultOptions() Options {
	return Options{FOV: DefaultFOV, Near: DefaultNear, Light: DefaultLight()}
}

// Renderer composes frames for one session's immutable scene.
type Renderer struct {
	meshes *Meshes
	opts   Options
	repeat bool
}

// NewRenderer builds meshes for g once. Zero option fields take defaults.
func NewRenderer(g *scene.Graph, opts Options) *Renderer {
	def := DefaultOptions()
	if opts.FOV <= 0 || opts.FOV >= math.Pi {
		opts.FOV = def.FOV
	}
	if opts.Near <= 0 {
		opts.Near = def.Near
	}
	if opts.Light == (Light{}) {
		opts.Light = def.Light
	}
	return &Renderer{meshes: BuildMeshes(g), opts: opts, repeat: true}
}

// Meshes exposes the static geometry.
func (r *Renderer) Meshes() *Meshes { return r.meshes }

// SetFloorRepeat selects how floor coordinates map to the texture: repeated
// every GridTile units, or stretched once across the venue.
func (r *Renderer) SetFloorRepeat(repeat bool) { r.repeat = repeat }

// Compose builds the frame seen from cam in a w x h viewport.
func (r *Renderer) Compose(cam nav.CameraState, w, h int) Frame {
	v := newView(cam, w, h, r.opts.FOV, r.opts.Near)
	light := r.opts.Light
	f := Frame{
		Width:  w,
		Height: h,
		Sky:    Sky{Top: skyTop, Horizon: skyHorizon, Ground: groundColor, HorizonY: v.horizonY()},
	}

	floorTint := shadeColor(floorBase, light.Shade(mgl64.Vec3{0, 1, 0}))
	for _, face := range r.meshes.Floor.Faces {
		if cam.Position.Y <= 0 {
			break
		}
		p, ok := r.polygon(v, face.Verts, face.Floor)
		if !ok {
			continue
		}
		p.Color = floorTint
		f.Floor = append(f.Floor, p)
	}

	for _, m := range r.meshes.Boxes {
		hull := light.shadowOutline(m.Corners)
		if len(hull) < 3 {
			continue
		}
		verts := make([]mgl64.Vec3, len(hull))
		for i, q := range hull {
			verts[i] = mgl64.Vec3{q[0], 0, q[1]}
		}
		if p, ok := r.polygon(v, verts, nil); ok {
			p.Color = shadowColor
			f.Shadows = append(f.Shadows, p)
		}
	}

	eye := vec(cam.Position)
	for _, m := range r.meshes.Boxes {
		for _, face := range m.Faces {
			if face.Normal.Dot(eye.Sub(face.Verts[0])) <= 0 {
				continue
			}
			p, ok := r.polygon(v, face.Verts, nil)
			if !ok {
				continue
			}
			p.Color = shadeColor(face.Base, light.Shade(face.Normal))
			f.Faces = append(f.Faces, p)
		}
	}
	sort.SliceStable(f.Faces, func(i, j int) bool { return f.Faces[i].Depth > f.Faces[j].Depth })
	return f
}

// polygon moves a world polygon into camera space, clips it at the near
// plane and projects it. floor, when set, carries per-vertex floor coordinates.
func (r *Renderer) polygon(v view, verts []mgl64.Vec3, floor [][2]float64) (Polygon, bool) {
	cv := make([]camVert, len(verts))
	for i, p := range verts {
		cv[i].P = v.toCamera(p)
		if floor != nil {
			cv[i].UV = r.textureUV(floor[i])
		}
	}
	cv = clipNear(cv, v.near)
	if len(cv) < 3 {
		return Polygon{}, false
	}
	out := Polygon{Verts: make([]Vertex, len(cv))}
	for i, c := range cv {
		x, y := v.toScreen(c.P)
		out.Verts[i] = Vertex{X: float32(x), Y: float32(y), U: float32(c.UV[0]), V: float32(c.UV[1])}
		out.Depth += -c.P.Z()
	}
	out.Depth /= float64(len(cv))
	return out, true
}

func (r *Renderer) textureUV(floor [2]float64) [2]float64 {
	if r.repeat {
		return [2]float64{floor[0] / GridTile, floor[1] / GridTile}
	}
	w, l := r.meshes.Width, r.meshes.Length
	if w <= 0 || l <= 0 {
		return [2]float64{}
	}
	return [2]float64{floor[0] / w, floor[1] / l}
}

// FanIndices returns triangle-fan indices for an n-gon.
func FanIndices(n int) []uint16 {
	if n < 3 {
		return nil
	}
	idx := make([]uint16, 0, 3*(n-2))
	for i := 1; i < n-1; i++ {
		idx = append(idx, 0, uint16(i), uint16(i+1))
	}
	return idx
}
