package walk

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Venue-Walkthrough/internal/minimap"
	"github.com/Garsondee/Venue-Walkthrough/internal/nav"
	"github.com/Garsondee/Venue-Walkthrough/internal/render"
	"github.com/Garsondee/Venue-Walkthrough/internal/texture"
)

// statusMaxAge is how long a notice stays on screen, in frames.
const statusMaxAge = 60 * 6

var (
	panelBg     = color.RGBA{R: 10, G: 12, B: 14, A: 220}
	panelEdge   = color.RGBA{R: 90, G: 100, B: 110, A: 255}
	textColor   = color.RGBA{R: 225, G: 228, B: 232, A: 255}
	dimText     = color.RGBA{R: 150, G: 156, B: 162, A: 255}
	errorColor  = color.RGBA{R: 240, G: 110, B: 90, A: 255}
	accentColor = color.RGBA{R: 110, G: 170, B: 230, A: 255}
)

// assets are window-wide drawing resources.
type assets struct {
	ui    *uiText
	white *ebiten.Image
}

func newAssets() (*assets, error) {
	ui, err := newUIText()
	if err != nil {
		return nil, err
	}
	white := ebiten.NewImage(1, 1)
	white.Fill(color.White)
	return &assets{ui: ui, white: white}, nil
}

// sessionView holds a session's GPU-side resources.
type sessionView struct {
	pad    *lookPad
	floor  *ebiten.Image
	mapBuf *image.RGBA
	mapImg *ebiten.Image
	verts  []ebiten.Vertex
}

func (s *Session) attachView(pad *lookPad) {
	s.view = &sessionView{pad: pad}
}

func (s *Session) releaseView() {
	v := s.view
	if v == nil {
		return
	}
	if v.pad != nil {
		v.pad.Visible = false
	}
	if v.floor != nil {
		v.floor.Deallocate()
	}
	if v.mapImg != nil {
		v.mapImg.Deallocate()
	}
	s.view = nil
}

func (v *sessionView) floorImage(t *texture.Texture) *ebiten.Image {
	if v.floor == nil {
		v.floor = ebiten.NewImageFromImage(t.Image)
	}
	return v.floor
}

// Draw paints the session. Geometry is only drawn once both the scene graph
// and the floor texture are ready.
func (s *Session) Draw(screen *ebiten.Image, a *assets) {
	if s.view == nil {
		return
	}
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	switch s.phase {
	case PhaseLoading:
		screen.Fill(color.RGBA{R: 18, G: 20, B: 24, A: 255})
		s.drawLoading(screen, a, w, h)
	case PhaseFailed:
		screen.Fill(color.RGBA{R: 18, G: 20, B: 24, A: 255})
		drawErrorPanel(screen, a, w, h, ErrorTitle(s.err), s.err.Error(), sessionErrorHint)
	case PhaseReady:
		frame, _ := s.Compose(w, h)
		s.drawFrame(screen, a, frame)
		s.drawMinimap(screen, w)
		s.drawHUD(screen, a, w, h)
		s.drawLookPad(screen, a, w, h)
	}
	s.deps.Status.Draw(screen, a.ui, s.Frame(), statusMaxAge)
}

func (s *Session) drawLoading(screen *ebiten.Image, a *assets, w, h int) {
	msg := "Loading layout..."
	if s.graph != nil {
		msg = "Preparing floor..."
	}
	cx, cy := float32(w)/2, float32(h)/2
	const dots = 10
	head := s.Frame() / 4 % dots
	for i := 0; i < dots; i++ {
		ang := 2 * math.Pi * float64(i) / dots
		x := cx + 22*float32(math.Cos(ang))
		y := cy - 20 + 22*float32(math.Sin(ang))
		c := dimText
		if i == head {
			c = accentColor
		}
		vector.FillCircle(screen, x, y, 4, c, true)
	}
	a.ui.draw(screen, msg, float64(cx)-a.ui.width(msg)/2, float64(cy)+16, textColor)
}

// Recovery hints shown under a blocking error.
const (
	sessionErrorHint = "Press Backspace to return to the layout list"
	lobbyErrorHint   = "Press R to retry"
)

func drawErrorPanel(screen *ebiten.Image, a *assets, w, h int, title, detail, hint string) {
	const pw = 520
	lines := a.ui.wrap(detail, pw-40)
	ph := float32(110 + 18*len(lines))
	x := float32(w-pw) / 2
	y := (float32(h) - ph) / 2
	vector.FillRect(screen, x, y, pw, ph, panelBg, false)
	vector.StrokeRect(screen, x, y, pw, ph, 1, panelEdge, false)
	vector.FillRect(screen, x, y, 4, ph, errorColor, false)
	a.ui.drawTitle(screen, title, float64(x)+20, float64(y)+16, errorColor)
	for i, l := range lines {
		a.ui.draw(screen, l, float64(x)+20, float64(y)+52+float64(18*i), textColor)
	}
	if hint != "" {
		a.ui.draw(screen, hint, float64(x)+20, float64(y+ph)-32, dimText)
	}
}

// skyTop is where the sky quad starts. With the horizon low on a tall
// screen hy-h is still above the top edge; it only dips below 0 when the
// horizon is above the frame, so the top row is always covered.
func skyTop(hy, h float32) float32 {
	return min(0, hy-h)
}

func (s *Session) drawFrame(screen *ebiten.Image, a *assets, f render.Frame) {
	w, h := float32(f.Width), float32(f.Height)
	hy := float32(f.Sky.HorizonY)

	// Sky gradient above the horizon, flat ground below.
	top := skyTop(hy, h)
	s.fillQuad(screen, a.white, [4][2]float32{{0, top}, {w, top}, {w, hy}, {0, hy}},
		[4]color.RGBA{f.Sky.Top, f.Sky.Top, f.Sky.Horizon, f.Sky.Horizon})
	if hy < h {
		vector.FillRect(screen, 0, hy, w, h-hy, f.Sky.Ground, false)
	}

	floor := s.view.floorImage(s.tex)
	tw, th := float32(floor.Bounds().Dx()), float32(floor.Bounds().Dy())
	op := &ebiten.DrawTrianglesOptions{Address: ebiten.AddressRepeat, Filter: ebiten.FilterLinear}
	for _, p := range f.Floor {
		v := s.polyVerts(p, tw, th)
		screen.DrawTriangles(v, render.FanIndices(len(v)), floor, op)
	}
	for _, p := range f.Shadows {
		s.fillPoly(screen, a.white, p)
	}
	for _, p := range f.Faces {
		s.fillPoly(screen, a.white, p)
	}
}

func (s *Session) polyVerts(p render.Polygon, tw, th float32) []ebiten.Vertex {
	v := s.view.verts[:0]
	r, g, b, al := float32(p.Color.R)/255, float32(p.Color.G)/255, float32(p.Color.B)/255, float32(p.Color.A)/255
	for _, pv := range p.Verts {
		v = append(v, ebiten.Vertex{
			DstX: pv.X, DstY: pv.Y,
			SrcX: pv.U * tw, SrcY: pv.V * th,
			ColorR: r, ColorG: g, ColorB: b, ColorA: al,
		})
	}
	s.view.verts = v
	return v
}

func (s *Session) fillPoly(screen, white *ebiten.Image, p render.Polygon) {
	v := s.polyVerts(p, 0, 0)
	screen.DrawTriangles(v, render.FanIndices(len(v)), white, &ebiten.DrawTrianglesOptions{})
}

func (s *Session) fillQuad(screen, white *ebiten.Image, pts [4][2]float32, cols [4]color.RGBA) {
	v := s.view.verts[:0]
	for i, pt := range pts {
		c := cols[i]
		v = append(v, ebiten.Vertex{
			DstX: pt[0], DstY: pt[1],
			ColorR: float32(c.R) / 255, ColorG: float32(c.G) / 255, ColorB: float32(c.B) / 255, ColorA: float32(c.A) / 255,
		})
	}
	s.view.verts = v
	screen.DrawTriangles(v, render.FanIndices(4), white, &ebiten.DrawTrianglesOptions{})
}

// drawMinimap rasterizes the overlay into a reused buffer and blits it to
// the top-right corner.
func (s *Session) drawMinimap(screen *ebiten.Image, w int) {
	ov := s.Overlay()
	if !ov.Visible {
		return
	}
	v := s.view
	if v.mapBuf == nil || v.mapBuf.Bounds().Dx() != ov.Size {
		if v.mapImg != nil {
			v.mapImg.Deallocate()
		}
		v.mapBuf = image.NewRGBA(image.Rect(0, 0, ov.Size, ov.Size))
		v.mapImg = ebiten.NewImage(ov.Size, ov.Size)
	}
	minimap.RasterizeInto(v.mapBuf, ov)
	v.mapImg.WritePixels(v.mapBuf.Pix)

	const margin = 12
	x := float64(w - ov.Size - margin)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(x, margin)
	screen.DrawImage(v.mapImg, op)
	vector.StrokeRect(screen, float32(x), margin, float32(ov.Size), float32(ov.Size), 1, panelEdge, false)
}

func (s *Session) drawHUD(screen *ebiten.Image, a *assets, w, h int) {
	cam := s.ctrl.Camera()
	cx, cy := float32(w)/2, float32(h)/2

	if s.ctrl.State() == nav.Idle {
		msg := "Click to walk around"
		vector.FillRect(screen, cx-120, cy-18, 240, 36, panelBg, false)
		a.ui.draw(screen, msg, float64(cx)-a.ui.width(msg)/2, float64(cy)-9, textColor)
	} else {
		vector.StrokeLine(screen, cx-7, cy, cx+7, cy, 1.5, textColor, true)
		vector.StrokeLine(screen, cx, cy-7, cx, cy+7, 1.5, textColor, true)
	}

	name := s.graph.Name
	if name == "" {
		name = s.LayoutID
	}
	lines := []string{
		name,
		fmt.Sprintf("x %.1f  z %.1f  heading %.0f", cam.Position.X, cam.Position.Z, cam.HeadingDegrees()),
		fmt.Sprintf("walk %.1f  look %.1f  %s", cam.WalkSpeed, cam.LookSpeed, s.ctrl.Mode()),
	}
	if s.lookingAt != "" {
		lines = append(lines, "ahead: "+s.lookingAt)
	}
	lines = append(lines,
		"WASD move  Esc release  M map  F fullscreen",
		"[ ] walk speed  ; ' look speed  I immersive  C copy",
	)
	const lineH = 18
	boxW, boxH := float32(360), float32(len(lines)*lineH+12)
	vector.FillRect(screen, 12, 12, boxW, boxH, panelBg, false)
	for i, l := range lines {
		c := textColor
		if i >= len(lines)-2 {
			c = dimText
		}
		a.ui.draw(screen, l, 20, float64(18+i*lineH), c)
	}
}

// drawLookPad shows the on-screen look buttons when the controller runs
// without pointer capture.
func (s *Session) drawLookPad(screen *ebiten.Image, a *assets, w, h int) {
	pad := s.view.pad
	if pad == nil {
		return
	}
	show := s.ctrl.State() == nav.Active && s.ctrl.Mode() == nav.ModeOnScreen
	if !show {
		pad.Visible = false
		return
	}
	*pad = newLookPad(w, h)
	pad.Visible = true
	for _, b := range []struct {
		r     image.Rectangle
		label string
	}{{pad.Left, "<"}, {pad.Right, ">"}, {pad.Up, "^"}, {pad.Down, "v"}} {
		x, y := float32(b.r.Min.X), float32(b.r.Min.Y)
		bw, bh := float32(b.r.Dx()), float32(b.r.Dy())
		vector.FillRect(screen, x, y, bw, bh, panelBg, false)
		vector.StrokeRect(screen, x, y, bw, bh, 1, panelEdge, false)
		a.ui.draw(screen, b.label, float64(x+bw/2)-a.ui.width(b.label)/2, float64(y+bh/2)-9, textColor)
	}
}
