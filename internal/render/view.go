package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Garsondee/Venue-Walkthrough/internal/nav"
)

// farPlane only bounds the projection matrix; depth is never used for culling.
const farPlane = 1000.0

// view transforms world points into camera space, where the camera sits at
// the origin looking down -Z with +Y up, and projects them to the screen.
type view struct {
	world  mgl64.Mat4 // world to camera
	proj   mgl64.Mat4
	pitch  float64
	focal  float64
	cx, cy float64
	near   float64
}

func newView(cam nav.CameraState, w, h int, fov, near float64) view {
	eye := cam.Position
	world := mgl64.HomogRotate3DX(-cam.Pitch).
		Mul4(mgl64.HomogRotate3DY(-cam.Yaw)).
		Mul4(mgl64.Translate3D(-eye.X, -eye.Y, -eye.Z))
	aspect := 1.0
	if h > 0 {
		aspect = float64(w) / float64(h)
	}
	return view{
		world: world,
		proj:  mgl64.Perspective(fov, aspect, near, farPlane),
		pitch: cam.Pitch,
		focal: float64(h) / 2 / math.Tan(fov/2),
		cx:    float64(w) / 2,
		cy:    float64(h) / 2,
		near:  near,
	}
}

func (v view) toCamera(p mgl64.Vec3) mgl64.Vec3 {
	return v.world.Mul4x1(p.Vec4(1)).Vec3()
}

// toScreen projects a camera-space point in front of the near plane.
func (v view) toScreen(p mgl64.Vec3) (x, y float64) {
	clip := v.proj.Mul4x1(p.Vec4(1))
	return v.cx + clip.X()/clip.W()*v.cx, v.cy - clip.Y()/clip.W()*v.cy
}

// horizonY is the screen row of the horizontal vanishing line.
func (v view) horizonY() float64 {
	return v.cy + math.Tan(v.pitch)*v.focal
}

// camVert is a camera-space vertex carrying its floor coordinates.
type camVert struct {
	P  mgl64.Vec3
	UV [2]float64
}

// clipNear keeps the part of a polygon in front of z = -near.
func clipNear(poly []camVert, near float64) []camVert {
	if len(poly) == 0 {
		return nil
	}
	inside := func(c camVert) bool { return c.P.Z() <= -near }
	out := make([]camVert, 0, len(poly)+1)
	prev := poly[len(poly)-1]
	for _, cur := range poly {
		ci, pi := inside(cur), inside(prev)
		if ci != pi {
			t := (-near - prev.P.Z()) / (cur.P.Z() - prev.P.Z())
			uv := [2]float64{
				prev.UV[0] + t*(cur.UV[0]-prev.UV[0]),
				prev.UV[1] + t*(cur.UV[1]-prev.UV[1]),
			}
			out = append(out, camVert{P: prev.P.Add(cur.P.Sub(prev.P).Mul(t)), UV: uv})
		}
		if ci {
			out = append(out, cur)
		}
		prev = cur
	}
	return out
}
