package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Payload is the raw layout record as stored by the drafting canvas. Field
// types are deliberately loose: numbers may arrive as strings and the object
// list may be double-encoded.
type Payload struct {
	Name        string        `json:"name"`
	VenueWidth  Num           `json:"venueWidth"`
	VenueLength Num           `json:"venueLength"`
	FloorImage  string        `json:"floorImage"`
	Objects     []DrawnObject `json:"objects"`
}

// DrawnObject is one shape from the 2D canvas, in plan units. Type is
// untrusted: rect, wall, circle, table, chair, furniture, or anything else.
type DrawnObject struct {
	Type   string `json:"type"`
	X      Num    `json:"x"`
	Y      Num    `json:"y"`
	Width  Num    `json:"width"`
	Height Num    `json:"height"`
	Angle  Num    `json:"angle"`
	Fill   string `json:"fill"`
	Name   string `json:"name"`
}

// Num is a float64 that also decodes from a numeric string or null.
type Num float64

// UnmarshalJSON accepts 12, 12.5, "12.5" and null (zero).
func (n *Num) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", s)
		}
		*n = Num(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = Num(f)
	return nil
}

// numPattern mirrors strconv.ParseFloat's accepted decimal forms closely
// enough for canvas exports.
const numPattern = `^\s*[-+]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][-+]?[0-9]+)?\s*$`

// payloadSchema constrains the shape of a layout record before decoding.
var payloadSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["objects"],
  "properties": {
    "name":        {"type": ["string", "null"]},
    "venueWidth":  {"$ref": "#/$defs/optNum"},
    "venueLength": {"$ref": "#/$defs/optNum"},
    "floorImage":  {"type": ["string", "null"]},
    "objects":     {"type": "array", "items": {"$ref": "#/$defs/object"}}
  },
  "$defs": {
    "num": {
      "anyOf": [
        {"type": "number"},
        {"type": "string", "pattern": "` + strings.ReplaceAll(numPattern, `\`, `\\`) + `"}
      ]
    },
    "optNum": {"anyOf": [{"$ref": "#/$defs/num"}, {"type": "null"}]},
    "object": {
      "type": "object",
      "required": ["type", "x", "y", "width", "height"],
      "properties": {
        "type":   {"type": "string", "minLength": 1},
        "x":      {"$ref": "#/$defs/num"},
        "y":      {"$ref": "#/$defs/num"},
        "width":  {"$ref": "#/$defs/num"},
        "height": {"$ref": "#/$defs/num"},
        "angle":  {"$ref": "#/$defs/optNum"},
        "fill":   {"type": ["string", "null"]},
        "name":   {"type": ["string", "null"]}
      }
    }
  }
}`

const payloadSchemaURL = "mem://schemas/layout-payload.json"

var compiledPayloadSchema = mustCompilePayloadSchema()

func mustCompilePayloadSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(payloadSchemaURL, strings.NewReader(payloadSchema)); err != nil {
		panic(fmt.Sprintf("scene: add payload schema: %v", err))
	}
	s, err := compiler.Compile(payloadSchemaURL)
	if err != nil {
		panic(fmt.Sprintf("scene: compile payload schema: %v", err))
	}
	return s
}

// ParsePayload decodes and validates a raw layout record. Any structural
// problem returns a *ParseError; a nil error guarantees every object carries
// the five required fields as finite numbers.
func ParsePayload(data []byte) (*Payload, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Index: -1, Reason: "payload is not a JSON object", Err: err}
	}
	if doc == nil {
		return nil, &ParseError{Index: -1, Reason: "payload is null"}
	}

	// Canvases are often stored with the object list serialised a second time.
	if raw, ok := doc["objects"].(string); ok {
		var objs any
		if err := json.Unmarshal([]byte(raw), &objs); err != nil {
			return nil, &ParseError{Index: -1, Field: "objects", Reason: "objects string is not JSON", Err: err}
		}
		if wrapped, ok := objs.(map[string]any); ok {
			objs = wrapped["objects"]
		}
		doc["objects"] = objs
	}

	if err := compiledPayloadSchema.Validate(doc); err != nil {
		return nil, parseErrorFromValidation(err)
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, &ParseError{Index: -1, Reason: "re-encode payload", Err: err}
	}
	var p Payload
	if err := json.Unmarshal(normalized, &p); err != nil {
		return nil, &ParseError{Index: -1, Reason: "decode payload", Err: err}
	}
	if err := p.check(); err != nil {
		return nil, err
	}
	return &p, nil
}

// check rejects values the schema cannot express: non-finite numbers and
// negative extents.
func (p *Payload) check() error {
	if !finite(float64(p.VenueWidth)) || p.VenueWidth < 0 {
		return &ParseError{Index: -1, Field: "venueWidth", Reason: "must be a non-negative number"}
	}
	if !finite(float64(p.VenueLength)) || p.VenueLength < 0 {
		return &ParseError{Index: -1, Field: "venueLength", Reason: "must be a non-negative number"}
	}
	for i, o := range p.Objects {
		fields := []struct {
			name string
			v    Num
		}{{"x", o.X}, {"y", o.Y}, {"width", o.Width}, {"height", o.Height}, {"angle", o.Angle}}
		for _, f := range fields {
			if !finite(float64(f.v)) {
				return &ParseError{Index: i, Field: f.name, Reason: "must be finite"}
			}
		}
		if o.Width < 0 {
			return &ParseError{Index: i, Field: "width", Reason: "extent must not be negative"}
		}
		if o.Height < 0 {
			return &ParseError{Index: i, Field: "height", Reason: "extent must not be negative"}
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// parseErrorFromValidation walks to the deepest schema cause and reports the
// object index and field it points at.
func parseErrorFromValidation(err error) *ParseError {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &ParseError{Index: -1, Reason: "schema validation failed", Err: err}
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	pe := &ParseError{Index: -1, Reason: leaf.Message, Err: err}
	// InstanceLocation looks like /objects/3/width.
	parts := strings.Split(strings.TrimPrefix(leaf.InstanceLocation, "/"), "/")
	if len(parts) >= 2 && parts[0] == "objects" {
		if idx, convErr := strconv.Atoi(parts[1]); convErr == nil {
			pe.Index = idx
		}
		if len(parts) >= 3 {
			pe.Field = parts[2]
		}
	} else if len(parts) >= 1 && parts[0] != "" {
		pe.Field = parts[0]
	}
	return pe
}
