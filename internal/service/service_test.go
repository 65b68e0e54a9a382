package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Garsondee/Venue-Walkthrough/internal/config"
	"github.com/Garsondee/Venue-Walkthrough/internal/layout"
	"github.com/Garsondee/Venue-Walkthrough/internal/scene"

	"github.com/gofiber/fiber/v3"
)

const hallPayload = `{"name":"Hall","objects":[
	{"type":"wall","x":500,"y":500,"width":400,"height":20},
	{"type":"circle","x":600,"y":500,"width":50,"height":50},
	{"type":"i-text","x":0,"y":0,"width":10,"height":10}
]}`

type memSource struct {
	records map[string]string
	err     error
}

func (m memSource) List(ctx context.Context) ([]layout.Summary, error) {
	if m.err != nil {
		return nil, &layout.FetchError{Op: "list", Err: m.err}
	}
	var out []layout.Summary
	for id := range m.records {
		out = append(out, layout.Summary{ID: id, Name: id})
	}
	return out, nil
}

func (m memSource) Fetch(ctx context.Context, id string) ([]byte, error) {
	if m.err != nil {
		return nil, &layout.FetchError{ID: id, Op: "fetch", Err: m.err}
	}
	data, ok := m.records[id]
	if !ok {
		return nil, &layout.FetchError{ID: id, Op: "fetch", Err: layout.ErrNotFound}
	}
	return []byte(data), nil
}

// slowSource blocks until its context ends and records the deadline it saw.
type slowSource struct {
	deadline chan bool
}

func (s slowSource) List(ctx context.Context) ([]layout.Summary, error) {
	return nil, s.wait(ctx)
}

func (s slowSource) Fetch(ctx context.Context, id string) ([]byte, error) {
	return nil, s.wait(ctx)
}

func (s slowSource) wait(ctx context.Context) error {
	_, ok := ctx.Deadline()
	s.deadline <- ok
	<-ctx.Done()
	return &layout.FetchError{Op: "fetch", Err: ctx.Err()}
}

func newTestApp(source layout.Source) *fiber.App {
	return New(config.Default(), source)
}

func do(t *testing.T, app *fiber.App, method, target, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, target, err)
	}
	return resp
}

func decodeMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return m
}

func TestHealthProbes(t *testing.T) {
	app := newTestApp(nil)
	for path, want := range map[string]string{"/health/live": "alive", "/health/ready": "ready"} {
		resp := do(t, app, http.MethodGet, path, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		if got := decodeMap(t, resp)["status"]; got != want {
			t.Fatalf("%s: expected status %q, got %v", path, want, got)
		}
	}
}

func TestScene_ReturnsGraph(t *testing.T) {
	resp := do(t, newTestApp(nil), http.MethodPost, "/v1/scene", hallPayload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	defer resp.Body.Close()
	var g scene.Graph
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		t.Fatalf("decode graph: %v", err)
	}
	if len(g.Walls) != 1 || len(g.Furniture) != 1 || len(g.Dropped) != 1 {
		t.Fatalf("expected 1 wall, 1 furniture, 1 dropped, got %d/%d/%d", len(g.Walls), len(g.Furniture), len(g.Dropped))
	}
	if g.Walls[0].Width != 4 {
		t.Fatalf("expected wall width 4, got %v", g.Walls[0].Width)
	}
}

func TestScene_EmptyBody(t *testing.T) {
	resp := do(t, newTestApp(nil), http.MethodPost, "/v1/scene", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestScene_ParseErrorIs422(t *testing.T) {
	body := `{"objects":[{"type":"rect","x":1,"y":1,"width":1,"height":1},{"type":"rect","x":"abc","y":1,"width":1,"height":1}]}`
	resp := do(t, newTestApp(nil), http.MethodPost, "/v1/scene", body)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	m := decodeMap(t, resp)
	if m["index"] != float64(1) || m["field"] != "x" {
		t.Fatalf("expected index 1 field x, got %v", m)
	}
}

func TestMinimap_ReturnsPNG(t *testing.T) {
	resp := do(t, newTestApp(nil), http.MethodPost, "/v1/minimap?x=0&z=1&yaw=90&size=120", hallPayload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}
	defer resp.Body.Close()
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 120 {
		t.Fatalf("expected 120x120 image, got %v", b)
	}
}

func TestMinimap_BadQuery(t *testing.T) {
	app := newTestApp(nil)
	for _, q := range []string{"x=abc", "size=4", "size=5000", "scale=0", "yaw=NaN"} {
		resp := do(t, app, http.MethodPost, "/v1/minimap?"+q, hallPayload)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, resp.StatusCode)
		}
	}
}

func TestLayoutRoutes_AbsentWithoutSource(t *testing.T) {
	resp := do(t, newTestApp(nil), http.MethodGet, "/v1/layouts", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 without a source, got %d", resp.StatusCode)
	}
}

func TestLayouts_ListAndScene(t *testing.T) {
	app := newTestApp(memSource{records: map[string]string{"hall": hallPayload}})

	m := decodeMap(t, do(t, app, http.MethodGet, "/v1/layouts", ""))
	items, ok := m["layouts"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one layout, got %v", m)
	}

	resp := do(t, app, http.MethodGet, "/v1/layouts/hall/scene", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if m := decodeMap(t, resp); m["name"] != "Hall" {
		t.Fatalf("expected graph name Hall, got %v", m["name"])
	}

	resp = do(t, app, http.MethodGet, "/v1/layouts/hall/minimap", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected minimap 200, got %d", resp.StatusCode)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatal("expected PNG bytes")
	}
}

func TestLayouts_ErrorMapping(t *testing.T) {
	app := newTestApp(memSource{records: map[string]string{"bad": `{"objects":42}`}})
	if resp := do(t, app, http.MethodGet, "/v1/layouts/missing/scene", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for a missing layout, got %d", resp.StatusCode)
	}
	if resp := do(t, app, http.MethodGet, "/v1/layouts/bad/scene", ""); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a malformed record, got %d", resp.StatusCode)
	}

	down := newTestApp(memSource{err: errors.New("connection refused")})
	if resp := do(t, down, http.MethodGet, "/v1/layouts", ""); resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 for an unavailable source, got %d", resp.StatusCode)
	}
	if resp := do(t, down, http.MethodGet, "/v1/layouts/hall/scene", ""); resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 for an unavailable source, got %d", resp.StatusCode)
	}
}

func TestRequestID(t *testing.T) {
	app := newTestApp(nil)
	resp := do(t, app, http.MethodGet, "/health/live", "")
	if resp.Header.Get(HeaderRequestID) == "" {
		t.Fatal("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if got := resp.Header.Get(HeaderRequestID); got != "abc-123" {
		t.Fatalf("expected echoed id abc-123, got %q", got)
	}
}

func TestLayouts_FetchBoundedByTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.FetchTimeout = 30 * time.Millisecond
	src := slowSource{deadline: make(chan bool, 2)}
	app := New(cfg, src)

	start := time.Now()
	resp := do(t, app, http.MethodGet, "/v1/layouts/hall/scene", "")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 after the fetch timed out, got %d", resp.StatusCode)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected the fetch to end with its timeout, took %v", elapsed)
	}
	if !<-src.deadline {
		t.Fatal("expected the source to see a deadline")
	}

	if resp := do(t, app, http.MethodGet, "/v1/layouts", ""); resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 after the list timed out, got %d", resp.StatusCode)
	}
	if !<-src.deadline {
		t.Fatal("expected the list call to see a deadline")
	}
}
