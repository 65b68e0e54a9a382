package walk

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Garsondee/Venue-Walkthrough/internal/layout"
	"github.com/Garsondee/Venue-Walkthrough/internal/nav"
	"github.com/Garsondee/Venue-Walkthrough/internal/texture"
)

// TestSession drives a Session frame by frame without a window. It is used
// by the package tests.
type TestSession struct {
	*Session
	Device  *ScriptedDevice
	Capture *FakeCapture
	Log     *SessionLog
	Status  *StatusLog
}

type testConfig struct {
	layoutID     string
	source       layout.Source
	loader       texture.Loader
	capture      nav.Capture
	platform     Platform
	fetchTimeout time.Duration
	texTimeout   time.Duration
	verbose      bool
}

// TestOption configures NewTestSession.
type TestOption func(*testConfig)

// WithLayout serves payload under id from an in-memory source and opens it.
func WithLayout(id string, payload []byte) TestOption {
	return func(c *testConfig) {
		c.layoutID = id
		c.source = MemorySource{id: payload}
	}
}

// WithSource opens id from src.
func WithSource(src layout.Source, id string) TestOption {
	return func(c *testConfig) {
		c.source = src
		c.layoutID = id
	}
}

// WithTextureLoader replaces the floor image loader.
func WithTextureLoader(l texture.Loader) TestOption {
	return func(c *testConfig) { c.loader = l }
}

// WithTextureTimeout bounds the floor image load.
func WithTextureTimeout(d time.Duration) TestOption {
	return func(c *testConfig) { c.texTimeout = d }
}

// WithCapture replaces the pointer capture. Pass nil for a platform without
// capture.
func WithCapture(cp nav.Capture) TestOption {
	return func(c *testConfig) { c.capture = cp }
}

// WithPlatform sets fullscreen, immersive and clipboard capabilities.
func WithPlatform(p Platform) TestOption {
	return func(c *testConfig) { c.platform = p }
}

// WithFetchTimeout bounds the layout fetch.
func WithFetchTimeout(d time.Duration) TestOption {
	return func(c *testConfig) { c.fetchTimeout = d }
}

// WithVerbose echoes session log entries to stdout.
func WithVerbose() TestOption {
	return func(c *testConfig) { c.verbose = true }
}

// NewTestSession builds and starts a headless session. By default pointer
// capture succeeds through a FakeCapture.
func NewTestSession(opts ...TestOption) *TestSession {
	fc := &FakeCapture{}
	cfg := testConfig{layoutID: "test", capture: fc, texTimeout: 2 * time.Second}
	for _, o := range opts {
		o(&cfg)
	}
	var echo func(string, ...any)
	if cfg.verbose {
		echo = func(format string, args ...any) { fmt.Printf(format+"\n", args...) }
	}
	loader := cfg.loader
	if loader == nil {
		loader = texture.RefLoader{}
	}
	ts := &TestSession{
		Device: &ScriptedDevice{},
		Log:    NewSessionLog(echo),
		Status: NewStatusLog(),
	}
	if c, ok := cfg.capture.(*FakeCapture); ok {
		ts.Capture = c
	}
	platform := cfg.platform
	platform.Capture = cfg.capture
	ts.Session = NewSession(context.Background(), cfg.layoutID, ts.Device, Deps{
		Source:       cfg.source,
		Textures:     texture.NewProvisioner(loader, texture.WithTimeout(cfg.texTimeout), texture.WithLogf(nil)),
		Platform:     platform,
		Log:          ts.Log,
		Status:       ts.Status,
		Camera:       nav.DefaultCamera(),
		FetchTimeout: cfg.fetchTimeout,
	})
	return ts
}

// frameDT is one 60 Hz frame.
const frameDT = 1.0 / 60

// Step runs n frames with the given held input. act applies to the first
// frame only.
func (ts *TestSession) Step(n int, in nav.Input, act Actions) {
	for i := 0; i < n; i++ {
		ts.Device.Next = in
		if i == 0 {
			ts.Device.Pending = act
		}
		ts.Update(frameDT)
	}
	ts.Device.Next = nav.Input{}
}

// Act runs a single frame with one action and no movement.
func (ts *TestSession) Act(act Actions) {
	ts.Step(1, nav.Input{}, act)
}

// RunUntil updates frame by frame until pred holds or wait elapses. Loads
// complete on other goroutines, so frames are paced with a short sleep.
func (ts *TestSession) RunUntil(pred func(*Session) bool, wait time.Duration) bool {
	deadline := time.Now().Add(wait)
	for {
		ts.Update(frameDT)
		if pred(ts.Session) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

// WaitReady runs until the session leaves PhaseLoading.
func (ts *TestSession) WaitReady(wait time.Duration) Phase {
	ts.RunUntil(func(s *Session) bool { return s.Phase() != PhaseLoading }, wait)
	return ts.Phase()
}

// ScriptedDevice is an InputDevice fed by tests.
type ScriptedDevice struct {
	Next     nav.Input
	Pending  Actions
	Detached bool
	Polls    int
}

func (d *ScriptedDevice) Poll() nav.Input {
	if d.Detached {
		return nav.Input{}
	}
	d.Polls++
	return d.Next
}

// Actions returns and clears the pending actions.
func (d *ScriptedDevice) Actions() Actions {
	if d.Detached {
		return Actions{}
	}
	a := d.Pending
	d.Pending = Actions{}
	return a
}

func (d *ScriptedDevice) Detach() { d.Detached = true }

// FakeCapture records acquire/release calls.
type FakeCapture struct {
	Fail     error
	Held     bool
	Acquired int
	Released int
}

func (f *FakeCapture) Acquire() error {
	f.Acquired++
	if f.Fail != nil {
		return f.Fail
	}
	f.Held = true
	return nil
}

func (f *FakeCapture) Release() {
	f.Released++
	f.Held = false
}

// MemorySource serves layout records from memory.
type MemorySource map[string][]byte

func (m MemorySource) List(ctx context.Context) ([]layout.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, &layout.FetchError{Op: "list", Err: err}
	}
	out := make([]layout.Summary, 0, len(m))
	for id := range m {
		out = append(out, layout.Summary{ID: id, Name: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m MemorySource) Fetch(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &layout.FetchError{ID: id, Op: "fetch", Err: err}
	}
	data, ok := m[id]
	if !ok {
		return nil, &layout.FetchError{ID: id, Op: "fetch", Err: layout.ErrNotFound}
	}
	return data, nil
}
