package render

import (
	"math"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Garsondee/Venue-Walkthrough/internal/nav"
	"github.com/Garsondee/Venue-Walkthrough/internal/scene"
)

func boxGraph(items ...scene.FurnitureItem) *scene.Graph {
	return &scene.Graph{VenueWidth: 8, VenueLength: 8, Furniture: items}
}

func cube(x, z float64) scene.FurnitureItem {
	return scene.FurnitureItem{
		Position:   scene.Vec3{X: x, Y: 0.25, Z: z},
		Dimensions: [3]float64{1, 0.5, 1},
		Color:      "#8b7355",
	}
}

func camAt(x, z float64) nav.CameraState {
	c := nav.DefaultCamera()
	c.Position = scene.Vec3{X: x, Y: nav.EyeHeight, Z: z}
	return c
}

func TestView_CenterProjectsToScreenCenter(t *testing.T) {
	v := newView(camAt(0, 5), 800, 600, DefaultFOV, DefaultNear)
	p := v.toCamera(mgl64.Vec3{0, nav.EyeHeight, 0})
	if math.Abs(p.Z()+5) > 1e-9 {
		t.Fatalf("expected point 5 units ahead, got z=%f", p.Z())
	}
	x, y := v.toScreen(p)
	if math.Abs(x-400) > 1e-9 || math.Abs(y-300) > 1e-9 {
		t.Fatalf("expected screen centre, got (%f,%f)", x, y)
	}
}

func TestView_YawTurnsLeft(t *testing.T) {
	cam := camAt(0, 0)
	cam.Yaw = math.Pi / 2
	v := newView(cam, 800, 600, DefaultFOV, DefaultNear)
	// After turning left a quarter, -X is straight ahead.
	p := v.toCamera(mgl64.Vec3{-3, nav.EyeHeight, 0})
	if math.Abs(p.X()) > 1e-9 || math.Abs(p.Z()+3) > 1e-9 {
		t.Fatalf("expected (0,_,-3), got %+v", p)
	}
}

func TestCompose_BoxAheadShowsFrontAndTop(t *testing.T) {
	r := NewRenderer(boxGraph(cube(0, 0)), DefaultOptions())
	if n := len(r.Meshes().Boxes); n != 1 {
		t.Fatalf("expected one box mesh, got %d", n)
	}
	f := r.Compose(camAt(0, 5), 800, 600)
	if len(f.Faces) != 2 {
		t.Fatalf("expected front and top faces, got %d", len(f.Faces))
	}
	if len(f.Shadows) != 1 {
		t.Fatalf("expected one shadow, got %d", len(f.Shadows))
	}
}

func TestCompose_BehindCameraIsClipped(t *testing.T) {
	r := NewRenderer(boxGraph(cube(0, 0)), DefaultOptions())
	cam := camAt(0, -5) // box is behind, camera looks toward -Z
	f := r.Compose(cam, 800, 600)
	if len(f.Faces) != 0 {
		t.Fatalf("expected no faces behind the camera, got %d", len(f.Faces))
	}
}

func TestCompose_PainterOrderFarthestFirst(t *testing.T) {
	r := NewRenderer(boxGraph(cube(0, 0), cube(0.5, -3), cube(-0.5, 2)), DefaultOptions())
	f := r.Compose(camAt(0, 5), 800, 600)
	if len(f.Faces) < 3 {
		t.Fatalf("expected faces from all boxes, got %d", len(f.Faces))
	}
	for i := 1; i < len(f.Faces); i++ {
		if f.Faces[i-1].Depth < f.Faces[i].Depth {
			t.Fatalf("faces not sorted far to near at %d: %f < %f", i, f.Faces[i-1].Depth, f.Faces[i].Depth)
		}
	}
}

func TestCompose_FloorClippedAtNearPlane(t *testing.T) {
	r := NewRenderer(boxGraph(), DefaultOptions())
	// Standing inside the venue: some cells straddle the camera.
	f := r.Compose(camAt(0.3, 0.2), 640, 480)
	if len(f.Floor) == 0 {
		t.Fatal("expected visible floor cells")
	}
	for _, p := range f.Floor {
		if len(p.Verts) < 3 {
			t.Fatalf("expected clipped polygon with >= 3 verts, got %d", len(p.Verts))
		}
		for _, vx := range p.Verts {
			if math.IsNaN(float64(vx.X)) || math.IsInf(float64(vx.Y), 0) {
				t.Fatalf("expected finite screen coords, got %+v", vx)
			}
		}
	}
}

func TestCompose_FloorMapping(t *testing.T) {
	maxU := func(f Frame) float32 {
		var m float32
		for _, p := range f.Floor {
			for _, v := range p.Verts {
				if v.U > m {
					m = v.U
				}
			}
		}
		return m
	}
	r := NewRenderer(boxGraph(), DefaultOptions())
	cam := camAt(0, 6)

	repeat := maxU(r.Compose(cam, 800, 600))
	if repeat <= 1 || repeat > 8/GridTile+1e-4 {
		t.Fatalf("expected repeating U in (1, %f], got %f", 8/GridTile, repeat)
	}

	r.SetFloorRepeat(false)
	stretched := maxU(r.Compose(cam, 800, 600))
	if stretched > 1+1e-4 || stretched < 0.9 {
		t.Fatalf("expected stretched U near 1, got %f", stretched)
	}
}

func TestCompose_Deterministic(t *testing.T) {
	g := boxGraph(cube(0, 0), cube(2, -1))
	g.Walls = []scene.Wall{{Position: scene.Vec3{Y: 1.25, Z: -3}, Width: 6, Height: 2.5, Depth: 0.2, RotationRad: 0.3}}
	cam := camAt(0.5, 4)
	cam.Yaw, cam.Pitch = 0.2, -0.1
	a := NewRenderer(g, DefaultOptions()).Compose(cam, 640, 480)
	b := NewRenderer(g, DefaultOptions()).Compose(cam, 640, 480)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("expected identical frames for identical inputs")
	}
}

func TestCompose_HorizonFollowsPitch(t *testing.T) {
	r := NewRenderer(boxGraph(), DefaultOptions())
	cam := camAt(0, 0)
	if y := r.Compose(cam, 800, 600).Sky.HorizonY; math.Abs(y-300) > 1e-9 {
		t.Fatalf("expected horizon at 300, got %f", y)
	}
	cam.Pitch = 0.3
	if y := r.Compose(cam, 800, 600).Sky.HorizonY; y <= 300 {
		t.Fatalf("expected horizon to drop when looking up, got %f", y)
	}
}

func TestBuildMeshes_OneBoxPerEntity(t *testing.T) {
	g := boxGraph(cube(0, 0), cube(1, 1))
	g.Walls = []scene.Wall{{Width: 4, Height: 2.5, Depth: 0.2}}
	m := BuildMeshes(g)
	if len(m.Boxes) != 3 {
		t.Fatalf("expected 3 boxes, got %d", len(m.Boxes))
	}
	for _, b := range m.Boxes {
		if len(b.Faces) != 5 {
			t.Fatalf("expected 5 faces per box, got %d", len(b.Faces))
		}
	}
	if len(m.Floor.Faces) != 64 {
		t.Fatalf("expected 8x8 floor cells, got %d", len(m.Floor.Faces))
	}
	if top := m.Boxes[0].Corners[4].Y(); top != 2.5 {
		t.Fatalf("expected wall top at 2.5, got %f", top)
	}
}

func TestLight_ShadeFacesTowardSunBrighter(t *testing.T) {
	l := DefaultLight()
	up := l.Shade(mgl64.Vec3{0, 1, 0})
	away := l.Shade(mgl64.Vec3{-1, 0, 0})
	if up <= away {
		t.Fatalf("expected lit top brighter than shaded side: %f <= %f", up, away)
	}
	if away != l.Ambient {
		t.Fatalf("expected ambient-only shade %f, got %f", l.Ambient, away)
	}
}

func TestConvexHull_Square(t *testing.T) {
	pts := [][2]float64{{0, 0}, {1, 0}, {0.5, 0.5}, {1, 1}, {0, 1}}
	h := convexHull(pts)
	if len(h) != 4 {
		t.Fatalf("expected 4 hull points, got %v", h)
	}
}

func TestFanIndices(t *testing.T) {
	got := FanIndices(4)
	want := []uint16{0, 1, 2, 0, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if FanIndices(2) != nil {
		t.Fatal("expected nil for degenerate polygon")
	}
}

func TestView_PitchUpRaisesForwardPoint(t *testing.T) {
	cam := camAt(0, 0)
	cam.Pitch = 0.4
	v := newView(cam, 800, 600, DefaultFOV, DefaultNear)
	// A point along the pitched view direction stays on the optical axis.
	s, c := math.Sincos(cam.Pitch)
	p := v.toCamera(mgl64.Vec3{0, nav.EyeHeight + 4*s, -4 * c})
	if math.Abs(p.X()) > 1e-9 || math.Abs(p.Y()) > 1e-9 || math.Abs(p.Z()+4) > 1e-9 {
		t.Fatalf("expected (0,0,-4), got %v", p)
	}
	x, y := v.toScreen(p)
	if math.Abs(x-400) > 1e-6 || math.Abs(y-300) > 1e-6 {
		t.Fatalf("expected screen centre, got (%f,%f)", x, y)
	}
}
