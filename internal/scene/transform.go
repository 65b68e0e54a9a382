package scene

import (
	"math"
	"strings"
)

// Plan-to-world mapping. Every object goes through the same affine remap;
// the minimap's display scale is a separate, cosmetic constant.
const (
	PlanScale  = 0.01  // world units per plan unit
	PlanCenter = 500.0 // plan coordinate that maps to the world origin
)

// Entity heights in world units.
const (
	WallHeight      = 2.5
	FurnitureHeight = 0.5
	TableHeight     = 0.75
)

// Venue defaults when the record leaves dimensions out.
const (
	DefaultVenueWidth  = 10.0
	DefaultVenueLength = 10.0
)

// Colours used when a drawn object has no fill, or whose type fixes the tone.
const (
	DefaultWallColor      = "#d9d4c7"
	DefaultFurnitureColor = "#8b7355"
	TableColor            = "#8b4513"
	SeatingColor          = "#a0522d"
)

// Graph is the typed scene derived from one layout record. It is built once
// per session and never mutated afterwards; renderers share the pointer.
type Graph struct {
	Name        string          `json:"name"`
	VenueWidth  float64         `json:"venueWidth"`
	VenueLength float64         `json:"venueLength"`
	FloorImage  string          `json:"floorImage,omitempty"`
	Walls       []Wall          `json:"walls"`
	Furniture   []FurnitureItem `json:"furniture"`
	Dropped     []Dropped       `json:"dropped,omitempty"`
}

// Dropped records a drawn object whose type the heuristic does not know.
type Dropped struct {
	Index int    `json:"index"`
	Type  string `json:"type"`
}

// Entities returns walls followed by furniture, in drawing order.
func (g *Graph) Entities() []Entity {
	out := make([]Entity, 0, len(g.Walls)+len(g.Furniture))
	for _, w := range g.Walls {
		out = append(out, w)
	}
	for _, f := range g.Furniture {
		out = append(out, f)
	}
	return out
}

// Build parses a raw layout record and transforms it in one step.
func Build(data []byte) (*Graph, error) {
	p, err := ParsePayload(data)
	if err != nil {
		return nil, err
	}
	return Transform(p)
}

// Transform converts a layout payload into a scene graph. It performs no I/O
// and either returns a complete graph or a *ParseError, never a partial one.
func Transform(p *Payload) (*Graph, error) {
	if p == nil {
		return nil, &ParseError{Index: -1, Reason: "payload is nil"}
	}
	if err := p.check(); err != nil {
		return nil, err
	}

	g := &Graph{
		Name:        strings.TrimSpace(p.Name),
		VenueWidth:  float64(p.VenueWidth),
		VenueLength: float64(p.VenueLength),
		FloorImage:  strings.TrimSpace(p.FloorImage),
		Walls:       []Wall{},
		Furniture:   []FurnitureItem{},
	}
	if g.VenueWidth == 0 {
		g.VenueWidth = DefaultVenueWidth
	}
	if g.VenueLength == 0 {
		g.VenueLength = DefaultVenueLength
	}

	for i, o := range p.Objects {
		switch class := ClassifyObject(o); class {
		case ClassWall:
			g.Walls = append(g.Walls, wallFrom(o))
		case ClassDropped:
			g.Dropped = append(g.Dropped, Dropped{Index: i, Type: o.Type})
		default:
			g.Furniture = append(g.Furniture, furnitureFrom(o, class))
		}
	}
	return g, nil
}

// PlanToWorld maps a plan-space point onto the world floor plane (X, Z).
func PlanToWorld(px, py float64) (x, z float64) {
	return (px - PlanCenter) * PlanScale, (py - PlanCenter) * PlanScale
}

// DegToRad converts a canvas angle to a yaw.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func wallFrom(o DrawnObject) Wall {
	x, z := PlanToWorld(float64(o.X), float64(o.Y))
	return Wall{
		Position:    Vec3{X: x, Y: WallHeight / 2, Z: z},
		Width:       float64(o.Width) * PlanScale,
		Height:      WallHeight,
		Depth:       float64(o.Height) * PlanScale,
		RotationRad: DegToRad(float64(o.Angle)),
		Color:       orDefault(o.Fill, DefaultWallColor),
	}
}

func furnitureFrom(o DrawnObject, class Class) FurnitureItem {
	x, z := PlanToWorld(float64(o.X), float64(o.Y))
	w := float64(o.Width) * PlanScale
	d := float64(o.Height) * PlanScale
	h := FurnitureHeight
	color := orDefault(o.Fill, DefaultFurnitureColor)
	label := strings.TrimSpace(o.Name)
	typ := strings.ToLower(strings.TrimSpace(o.Type))

	switch class {
	case ClassRound:
		// Diameter of the larger radius, boxed as a square.
		side := 2 * math.Max(float64(o.Width), float64(o.Height)) / 2 * PlanScale
		w, d = side, side
	case ClassTable:
		h = TableHeight
		color = TableColor
		label = orDefault(label, typ)
	case ClassFurniture:
		color = SeatingColor
		label = orDefault(label, typ)
	}

	return FurnitureItem{
		Position:    Vec3{X: x, Y: h / 2, Z: z},
		Dimensions:  [3]float64{w, h, d},
		RotationRad: DegToRad(float64(o.Angle)),
		Color:       color,
		Label:       label,
		SourceType:  typ,
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
