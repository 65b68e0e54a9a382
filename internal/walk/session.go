package walk

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Garsondee/Venue-Walkthrough/internal/layout"
	"github.com/Garsondee/Venue-Walkthrough/internal/minimap"
	"github.com/Garsondee/Venue-Walkthrough/internal/nav"
	"github.com/Garsondee/Venue-Walkthrough/internal/render"
	"github.com/Garsondee/Venue-Walkthrough/internal/scene"
	"github.com/Garsondee/Venue-Walkthrough/internal/texture"
)

// Phase is where a session is in its lifetime.
type Phase int

const (
	PhaseLoading Phase = iota // layout fetch or floor texture outstanding
	PhaseReady                // scene graph and texture resolved; geometry drawn
	PhaseFailed               // FetchError or ParseError; blocking error panel
	PhaseClosed               // torn down
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "closed"
	}
}

// Speed steps for runtime adjustment.
const (
	walkSpeedStep = 0.5
	lookSpeedStep = 0.1
	// pickRange is how far ahead the HUD looks for an entity to name.
	pickRange = 8.0
)

// Deps are the collaborators a session needs.
type Deps struct {
	Source       layout.Source
	Textures     *texture.Provisioner
	Platform     Platform
	Log          *SessionLog
	Status       *StatusLog
	Camera       nav.CameraState // starting speeds; position is placed per venue
	Minimap      minimap.State
	FetchTimeout time.Duration
}

var errNoSource = errors.New("no layout source configured")

type fetchResult struct {
	data []byte
	err  error
}

// Session is one walkthrough view lifetime: fetch, transform, texture,
// navigation, teardown. Update and Close run on the render loop; only the
// background loads run elsewhere, and they talk to the session through
// buffered channels.
type Session struct {
	ID       string
	LayoutID string

	deps   Deps
	device InputDevice
	ctx    context.Context
	cancel context.CancelFunc

	phase   Phase
	fetchCh chan fetchResult
	texCh   <-chan texture.Texture
	graph   *scene.Graph
	tex     *texture.Texture
	err     error

	ctrl      *nav.Controller
	renderer  *render.Renderer
	minimap   minimap.State
	lookingAt string
	back      bool

	frame     atomic.Int64
	closed    atomic.Bool
	discarded atomic.Int32

	view *sessionView // window resources; nil in headless use
}

// NewSession starts fetching layoutID in the background and returns a
// session in PhaseLoading.
func NewSession(parent context.Context, layoutID string, device InputDevice, deps Deps) *Session {
	if deps.Log == nil {
		deps.Log = NewSessionLog(nil)
	}
	if deps.Status == nil {
		deps.Status = NewStatusLog()
	}
	if deps.Textures == nil {
		deps.Textures = texture.NewProvisioner(texture.RefLoader{})
	}
	if deps.Minimap.MapSize == 0 {
		deps.Minimap = minimap.DefaultState()
	}
	if deps.Camera.WalkSpeed == 0 {
		deps.Camera = nav.DefaultCamera()
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ID:       uuid.NewString(),
		LayoutID: layoutID,
		deps:     deps,
		device:   device,
		ctx:      ctx,
		cancel:   cancel,
		phase:    PhaseLoading,
		fetchCh:  make(chan fetchResult, 1),
		minimap:  deps.Minimap,
	}
	s.logf(CatFetch, "start", layoutID, 0)
	go s.fetch()
	return s
}

func (s *Session) fetch() {
	ctx := s.ctx
	if s.deps.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deps.FetchTimeout)
		defer cancel()
	}
	var data []byte
	var err error = &layout.FetchError{ID: s.LayoutID, Op: "fetch", Err: errNoSource}
	if s.deps.Source != nil {
		data, err = s.deps.Source.Fetch(ctx, s.LayoutID)
	}
	if s.closed.Load() {
		s.discarded.Add(1)
		s.logf(CatSession, "discard_late", "fetch result after teardown", 0)
		return
	}
	s.fetchCh <- fetchResult{data: data, err: err}
}

// Update advances the session by one frame of dt seconds.
func (s *Session) Update(dt float64) {
	if s.closed.Load() {
		return
	}
	s.frame.Add(1)
	act := s.device.Actions()
	switch s.phase {
	case PhaseLoading:
		s.pollLoads()
		if act.Back {
			s.back = true
		}
	case PhaseFailed:
		if act.Back {
			s.back = true
		}
	case PhaseReady:
		s.handleActions(act)
		before := s.ctrl.State()
		cam := s.ctrl.Tick(dt)
		if before == nav.Active && s.ctrl.State() == nav.Idle {
			s.logf(CatCapture, "release", "escape", 0)
		}
		s.lookingAt = ""
		fx, fz := cam.Forward()
		if hit, ok := s.graph.Pick(cam.Position.X, cam.Position.Z, fx, fz, pickRange); ok {
			s.lookingAt = hit.Entity.Caption()
			if s.lookingAt == "" {
				s.lookingAt = hit.Entity.Kind().String()
			}
		}
	}
}

// pollLoads drains finished background loads without blocking the frame.
func (s *Session) pollLoads() {
	if s.graph == nil {
		select {
		case r := <-s.fetchCh:
			if r.err != nil {
				s.fail(CatFetch, r.err)
				return
			}
			g, err := scene.Build(r.data)
			if err != nil {
				s.fail(CatScene, err)
				return
			}
			s.graph = g
			s.logf(CatScene, "built", fmt.Sprintf("%d walls, %d furniture, %d dropped",
				len(g.Walls), len(g.Furniture), len(g.Dropped)), float64(len(g.Walls)+len(g.Furniture)))
			if len(g.Dropped) > 0 {
				s.deps.Status.Add(s.Frame(), StatusInfo,
					fmt.Sprintf("%d shapes of unknown type were left out", len(g.Dropped)))
			}
			s.texCh = s.deps.Textures.Resolve(s.ctx, g.FloorImage)
		default:
			return
		}
	}
	if s.tex == nil {
		select {
		case t := <-s.texCh:
			s.tex = &t
			if t.Err != nil {
				s.logf(CatTexture, "fallback", t.Err.Error(), 0)
			} else {
				s.logf(CatTexture, "ready", t.Source.String(), 0)
			}
		default:
			return
		}
	}
	s.becomeReady()
}

func (s *Session) fail(cat string, err error) {
	s.err = err
	s.phase = PhaseFailed
	s.logf(cat, "fail", err.Error(), 0)
}

func (s *Session) becomeReady() {
	cam := s.deps.Camera
	cam.Position = startPosition(s.graph)
	cam.Yaw, cam.Pitch = 0, 0
	s.ctrl = nav.NewController(cam, s.deps.Platform.Capture, s.device)
	s.renderer = render.NewRenderer(s.graph, render.DefaultOptions())
	s.renderer.SetFloorRepeat(s.tex.Repeat)
	s.phase = PhaseReady
	s.logf(CatView, "ready", s.graph.Name, 0)
}

// startPosition stands just inside the near edge of the venue, on the
// centre line, facing into the room.
func startPosition(g *scene.Graph) scene.Vec3 {
	z := g.VenueLength/2 - 1
	if z < 0 {
		z = 0
	}
	return scene.Vec3{X: 0, Y: nav.EyeHeight, Z: z}
}

func (s *Session) handleActions(act Actions) {
	p := s.deps.Platform
	if act.Engage && s.ctrl.State() == nav.Idle {
		if err := s.ctrl.Engage(); err != nil {
			s.degrade(CatCapture, err, "Pointer capture unavailable: use the arrow keys or on-screen buttons to look")
		} else {
			s.logf(CatCapture, "acquire", "", 0)
		}
	}
	if act.Back && s.ctrl.State() == nav.Idle {
		s.back = true
	}
	if act.ToggleMinimap {
		s.minimap = s.minimap.Toggled()
		s.logf(CatView, "minimap", fmt.Sprintf("visible=%v", s.minimap.Visible), 0)
	}
	if act.ToggleFullscreen {
		if p.Fullscreen == nil {
			s.degrade(CatView, &nav.CapabilityError{Capability: "fullscreen", Err: nav.ErrUnsupported}, "Fullscreen unavailable, staying windowed")
		} else if err := p.Fullscreen.SetFullscreen(!p.Fullscreen.IsFullscreen()); err != nil {
			s.degrade(CatView, err, "Fullscreen unavailable, staying windowed")
		}
	}
	if act.Immersive {
		s.presentImmersive()
	}
	if act.Copy {
		s.copyPosition()
	}

	cam := s.ctrl.Camera()
	switch {
	case act.WalkFaster:
		s.ctrl.SetWalkSpeed(cam.WalkSpeed + walkSpeedStep)
	case act.WalkSlower:
		s.ctrl.SetWalkSpeed(cam.WalkSpeed - walkSpeedStep)
	}
	switch {
	case act.LookFaster:
		s.ctrl.SetLookSpeed(cam.LookSpeed + lookSpeedStep)
	case act.LookSlower:
		s.ctrl.SetLookSpeed(cam.LookSpeed - lookSpeedStep)
	}
}

func (s *Session) presentImmersive() {
	p := s.deps.Platform.Immersive
	if p == nil {
		p = NoImmersive{}
	}
	if err := p.Present(s.ctx, s.graph); err != nil {
		s.degrade(CatImmerse, err, "Immersive preview is not available on this device")
		return
	}
	s.logf(CatImmerse, "present", s.graph.Name, 0)
}

func (s *Session) copyPosition() {
	cb := s.deps.Platform.Clipboard
	text := s.PositionSummary()
	var err error
	if cb == nil {
		err = &nav.CapabilityError{Capability: "clipboard", Err: nav.ErrUnsupported}
	} else {
		err = cb.WriteAll(text)
	}
	if err != nil {
		s.degrade(CatClipboard, err, "Clipboard unavailable")
		return
	}
	s.logf(CatClipboard, "copy", text, 0)
	s.deps.Status.Add(s.Frame(), StatusInfo, "Copied position to clipboard")
}

// degrade records a capability failure as a notice; it never fails the view.
func (s *Session) degrade(cat string, err error, notice string) {
	key := "error"
	if nav.IsCapabilityError(err) {
		key = "degrade"
	}
	s.logf(cat, key, err.Error(), 0)
	s.deps.Status.Add(s.Frame(), StatusWarn, notice)
}

// PositionSummary is the text copied to the clipboard.
func (s *Session) PositionSummary() string {
	cam := s.Camera()
	name := s.LayoutID
	if s.graph != nil && s.graph.Name != "" {
		name = s.graph.Name
	}
	return fmt.Sprintf("%s: x=%.2f z=%.2f heading=%.0f", name, cam.Position.X, cam.Position.Z, cam.HeadingDegrees())
}

// Close tears the session down. Capture is released and input detached
// whatever the phase; loads still in flight are cancelled and their results
// dropped. Close is idempotent.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.cancel()
	if s.ctrl != nil {
		s.ctrl.Close()
	} else {
		releaseCapture(s.deps.Platform.Capture)
		if s.device != nil {
			s.device.Detach()
		}
	}
	s.releaseView()
	s.phase = PhaseClosed
	s.logf(CatSession, "teardown", "", 0)
}

// Phase reports the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Graph is the session's scene graph, nil until the fetch resolves.
func (s *Session) Graph() *scene.Graph { return s.graph }

// Texture is the resolved floor texture, nil until it resolves.
func (s *Session) Texture() *texture.Texture { return s.tex }

// Err is the FetchError or ParseError that failed the session.
func (s *Session) Err() error { return s.err }

// Controller is the camera controller, nil until the session is ready.
func (s *Session) Controller() *nav.Controller { return s.ctrl }

// Camera returns the live camera, or the configured start before ready.
func (s *Session) Camera() nav.CameraState {
	if s.ctrl != nil {
		return s.ctrl.Camera()
	}
	return s.deps.Camera
}

// Minimap returns the minimap state.
func (s *Session) Minimap() minimap.State { return s.minimap }

// Overlay projects the current minimap frame.
func (s *Session) Overlay() minimap.Overlay {
	return minimap.Project(s.graph, s.Camera(), s.minimap)
}

// Compose builds the 3D frame for a viewport. Only valid when ready.
func (s *Session) Compose(w, h int) (render.Frame, bool) {
	if s.phase != PhaseReady {
		return render.Frame{}, false
	}
	return s.renderer.Compose(s.ctrl.Camera(), w, h), true
}

// LookingAt names the entity straight ahead, if any.
func (s *Session) LookingAt() string { return s.lookingAt }

// BackRequested reports that the user asked to return to the lobby.
func (s *Session) BackRequested() bool { return s.back }

// Frame is the number of updates run so far.
func (s *Session) Frame() int { return int(s.frame.Load()) }

// Discarded counts background results dropped after teardown.
func (s *Session) Discarded() int { return int(s.discarded.Load()) }

func (s *Session) logf(cat, key, value string, num float64) {
	s.deps.Log.Add(s.Frame(), s.ID[:8], cat, key, value, num)
}

// ErrorTitle is the heading shown on the blocking error panel.
func ErrorTitle(err error) string {
	var fe *layout.FetchError
	var pe *scene.ParseError
	switch {
	case errors.As(err, &fe) && errors.Is(err, layout.ErrNotFound):
		return "Layout not found"
	case errors.As(err, &fe):
		return "Layout unavailable"
	case errors.As(err, &pe):
		return "Layout could not be read"
	default:
		return "Walkthrough unavailable"
	}
}
