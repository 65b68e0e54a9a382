package service

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/Garsondee/Venue-Walkthrough/internal/layout"
	"github.com/Garsondee/Venue-Walkthrough/internal/minimap"
	"github.com/Garsondee/Venue-Walkthrough/internal/nav"
	"github.com/Garsondee/Venue-Walkthrough/internal/scene"

	"github.com/gofiber/fiber/v3"
)

// Minimap size bounds accepted from the query string.
const (
	MinMapSize = minimap.MinMapSize
	MaxMapSize = minimap.MaxMapSize
)

// ============================================================
// Scene Handler
// ============================================================

// Handler serves scene graphs and minimap images. Source may be nil, in which
// case only the payload-in endpoints are useful.
type Handler struct {
	source       layout.Source
	fetchTimeout time.Duration
}

func NewHandler(source layout.Source, fetchTimeout time.Duration) *Handler {
	if fetchTimeout <= 0 {
		fetchTimeout = layout.DefaultFetchTimeout
	}
	return &Handler{source: source, fetchTimeout: fetchTimeout}
}

// Scene turns a posted layout payload into its scene graph.
func (h *Handler) Scene(c fiber.Ctx) error {
	log.Printf("[SCENE] Received payload (%d bytes)", len(c.Body()))

	if len(c.Body()) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "body required"})
	}

	g, err := scene.Build(c.Body())
	if err != nil {
		return sceneError(c, err)
	}
	log.Printf("[SCENE] Built %d walls, %d furniture, %d dropped", len(g.Walls), len(g.Furniture), len(g.Dropped))
	return c.JSON(g)
}

// Minimap renders the overview of a posted payload as PNG. The camera comes
// from the query string: x, z (world units), yaw (degrees), size, scale.
func (h *Handler) Minimap(c fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "body required"})
	}

	cam, st, err := viewFromQuery(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	g, err := scene.Build(c.Body())
	if err != nil {
		return sceneError(c, err)
	}
	return sendMinimap(c, g, cam, st)
}

// ============================================================
// Layout Record Handlers
// ============================================================

// Layouts lists the records the configured source knows about.
func (h *Handler) Layouts(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.fetchTimeout)
	defer cancel()

	items, err := h.source.List(ctx)
	if err != nil {
		log.Printf("[LAYOUTS] List error: %v", err)
		return fetchError(c, err)
	}
	if items == nil {
		items = []layout.Summary{}
	}
	return c.JSON(fiber.Map{"layouts": items})
}

// LayoutScene fetches one record and returns its scene graph.
func (h *Handler) LayoutScene(c fiber.Ctx) error {
	g, err := h.fetchGraph(c.Context(), c.Params("id"))
	if err != nil {
		return graphError(c, err)
	}
	return c.JSON(g)
}

// LayoutMinimap fetches one record and renders its overview.
func (h *Handler) LayoutMinimap(c fiber.Ctx) error {
	cam, st, err := viewFromQuery(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	g, err := h.fetchGraph(c.Context(), c.Params("id"))
	if err != nil {
		return graphError(c, err)
	}
	return sendMinimap(c, g, cam, st)
}

func (h *Handler) fetchGraph(parent context.Context, id string) (*scene.Graph, error) {
	ctx, cancel := context.WithTimeout(parent, h.fetchTimeout)
	defer cancel()

	data, err := h.source.Fetch(ctx, id)
	if err != nil {
		log.Printf("[LAYOUTS] Fetch %q error: %v", id, err)
		return nil, err
	}
	return scene.Build(data)
}

// ============================================================
// Helpers
// ============================================================

func sendMinimap(c fiber.Ctx, g *scene.Graph, cam nav.CameraState, st minimap.State) error {
	var buf bytes.Buffer
	if err := minimap.EncodePNG(&buf, minimap.Project(g, cam, st)); err != nil {
		log.Printf("[MINIMAP] Encode error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "encode failed"})
	}
	c.Set("Content-Type", "image/png")
	return c.Send(buf.Bytes())
}

func sceneError(c fiber.Ctx, err error) error {
	var pe *scene.ParseError
	if errors.As(err, &pe) {
		log.Printf("[SCENE] Parse error: %v", err)
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": pe.Reason,
			"index": pe.Index,
			"field": pe.Field,
		})
	}
	log.Printf("[SCENE] Build error: %v", err)
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func fetchError(c fiber.Ctx, err error) error {
	if errors.Is(err, layout.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "layout not found"})
	}
	return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "layout source unavailable"})
}

func graphError(c fiber.Ctx, err error) error {
	if layout.IsFetchError(err) {
		return fetchError(c, err)
	}
	return sceneError(c, err)
}

// viewFromQuery reads the camera and map size for a minimap request. Missing
// values fall back to the default camera and map state.
func viewFromQuery(c fiber.Ctx) (nav.CameraState, minimap.State, error) {
	cam := nav.DefaultCamera()
	st := minimap.DefaultState()

	var err error
	if cam.Position.X, err = queryFloat(c, "x", cam.Position.X); err != nil {
		return cam, st, err
	}
	if cam.Position.Z, err = queryFloat(c, "z", cam.Position.Z); err != nil {
		return cam, st, err
	}
	yaw, err := queryFloat(c, "yaw", 0)
	if err != nil {
		return cam, st, err
	}
	cam.Yaw = yaw * math.Pi / 180

	size, err := queryFloat(c, "size", float64(st.MapSize))
	if err != nil {
		return cam, st, err
	}
	if size < MinMapSize || size > MaxMapSize {
		return cam, st, errors.New("size must be between " + strconv.Itoa(MinMapSize) + " and " + strconv.Itoa(MaxMapSize))
	}
	st.MapSize = int(size)

	if st.MapScale, err = queryFloat(c, "scale", st.MapScale); err != nil {
		return cam, st, err
	}
	if st.MapScale <= 0 {
		return cam, st, errors.New("scale must be positive")
	}
	return cam, st, nil
}

func queryFloat(c fiber.Ctx, key string, def float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return def, errors.New("invalid " + key)
	}
	return v, nil
}
