// Package render composes the first-person view of a scene graph: sky, a
// shaded and textured floor, floor shadows, and one box per wall or furniture
// item. Composition is pure; painting the resulting Frame is left to the
// window layer.
package render

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Garsondee/Venue-Walkthrough/internal/scene"
)

// Face is one planar polygon of a mesh in world space.
type Face struct {
	Verts  []mgl64.Vec3
	Floor  [][2]float64 // floor coordinates in world units from the venue corner; floor faces only
	Normal mgl64.Vec3
	Base   color.RGBA
}

// Mesh is the geometry derived from one entity, or the floor when Entity is nil.
type Mesh struct {
	Entity scene.Entity
	Faces  []Face
	// Corners are the eight box corners, used for shadow casting.
	Corners [8]mgl64.Vec3
}

// Meshes is the static geometry of one session.
type Meshes struct {
	Width, Length float64
	Floor         Mesh
	Boxes         []Mesh
}

// maxFloorCells bounds floor subdivision per axis.
const maxFloorCells = 48

var floorBase = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// BuildMeshes derives all geometry from g. Nothing here looks at drawing
// types: every box comes from the scene.Entity interface.
func BuildMeshes(g *scene.Graph) *Meshes {
	m := &Meshes{Width: g.VenueWidth, Length: g.VenueLength}
	m.Floor = floorMesh(g.VenueWidth, g.VenueLength)
	for _, e := range g.Entities() {
		m.Boxes = append(m.Boxes, boxMesh(e))
	}
	return m
}

// floorMesh splits the venue into roughly one-unit cells so perspective
// texture distortion stays bounded per cell.
func floorMesh(w, l float64) Mesh {
	nx := clampCells(w)
	nz := clampCells(l)
	cw, cl := w/float64(nx), l/float64(nz)
	x0, z0 := -w/2, -l/2
	up := mgl64.Vec3{0, 1, 0}

	faces := make([]Face, 0, nx*nz)
	for j := 0; j < nz; j++ {
		for i := 0; i < nx; i++ {
			u0, v0 := float64(i)*cw, float64(j)*cl
			u1, v1 := u0+cw, v0+cl
			faces = append(faces, Face{
				Verts: []mgl64.Vec3{
					{x0 + u0, 0, z0 + v0},
					{x0 + u0, 0, z0 + v1},
					{x0 + u1, 0, z0 + v1},
					{x0 + u1, 0, z0 + v0},
				},
				Floor:  [][2]float64{{u0, v0}, {u0, v1}, {u1, v1}, {u1, v0}},
				Normal: up,
				Base:   floorBase,
			})
		}
	}
	return Mesh{Faces: faces}
}

func clampCells(extent float64) int {
	n := int(math.Ceil(extent))
	if n < 1 {
		return 1
	}
	if n > maxFloorCells {
		return maxFloorCells
	}
	return n
}

// boxMesh builds the four sides and the top of an entity's box. The bottom
// rests on the floor and is never visible.
func boxMesh(e scene.Entity) Mesh {
	fp := scene.Footprint(e)
	h := e.Size().Y
	c := e.Center()
	tint := e.Tint()
	tint.A = 0xff

	var mesh Mesh
	mesh.Entity = e
	var bottom, top [4]mgl64.Vec3
	for i, p := range fp {
		bottom[i] = mgl64.Vec3{p[0], 0, p[1]}
		top[i] = mgl64.Vec3{p[0], h, p[1]}
		mesh.Corners[i] = bottom[i]
		mesh.Corners[i+4] = top[i]
	}

	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		mid := bottom[i].Add(bottom[j]).Mul(0.5)
		n := unit(mgl64.Vec3{mid.X() - c.X, 0, mid.Z() - c.Z})
		mesh.Faces = append(mesh.Faces, Face{
			Verts:  []mgl64.Vec3{bottom[i], bottom[j], top[j], top[i]},
			Normal: n,
			Base:   tint,
		})
	}
	mesh.Faces = append(mesh.Faces, Face{
		Verts:  []mgl64.Vec3{top[0], top[1], top[2], top[3]},
		Normal: mgl64.Vec3{0, 1, 0},
		Base:   tint,
	})
	return mesh
}

// vec lifts a scene position into render space.
func vec(v scene.Vec3) mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

// unit normalizes v, leaving a zero vector as is.
func unit(v mgl64.Vec3) mgl64.Vec3 {
	if v.Len() == 0 {
		return v
	}
	return v.Normalize()
}
