package scene

import "strings"

// Class is the outcome of the wall/furniture heuristic for one drawn object.
type Class int

const (
	ClassDropped   Class = iota // unrecognized type, no entity
	ClassWall                   // explicit wall, or a rect elongated past wallAspect
	ClassRect                   // generic rect furniture
	ClassRound                  // circle, boxed by its diameter
	ClassTable                  // explicit table
	ClassFurniture              // explicit chair or furniture
)

var classNames = [...]string{
	ClassDropped:   "dropped",
	ClassWall:      "wall",
	ClassRect:      "rect",
	ClassRound:     "round",
	ClassTable:     "table",
	ClassFurniture: "furniture",
}

func (c Class) String() string {
	if c < 0 || int(c) >= len(classNames) {
		return "unknown"
	}
	return classNames[c]
}

// Kind maps a class onto its entity variant. ok is false for ClassDropped.
func (c Class) Kind() (Kind, bool) {
	switch c {
	case ClassWall:
		return KindWall, true
	case ClassRect, ClassRound, ClassTable, ClassFurniture:
		return KindFurniture, true
	default:
		return 0, false
	}
}

// wallAspect is the side ratio above which an untyped rect reads as a wall.
const wallAspect = 3.0

// Classify decides what a drawn object becomes. It depends only on type,
// width and height, so the same inputs always produce the same class.
func Classify(typ string, width, height float64) Class {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "wall":
		return ClassWall
	case "rect":
		if width > wallAspect*height || height > wallAspect*width {
			return ClassWall
		}
		return ClassRect
	case "circle":
		return ClassRound
	case "table":
		return ClassTable
	case "chair", "furniture":
		return ClassFurniture
	default:
		return ClassDropped
	}
}

// ClassifyObject is Classify applied to a drawn object.
func ClassifyObject(o DrawnObject) Class {
	return Classify(o.Type, float64(o.Width), float64(o.Height))
}
