package scene

import "math"

// Hit is the result of a pick ray against the scene.
type Hit struct {
	Entity   Entity
	Distance float64
}

// Pick casts a ray across the floor plane from (ox, oz) along (dx, dz) and
// returns the nearest entity footprint it enters within maxDist. Rotated
// entities are tested in their own local frame.
func (g *Graph) Pick(ox, oz, dx, dz, maxDist float64) (Hit, bool) {
	l := math.Hypot(dx, dz)
	if l < 1e-12 || maxDist <= 0 {
		return Hit{}, false
	}
	ex := ox + dx/l*maxDist
	ez := oz + dz/l*maxDist

	best := Hit{Distance: math.MaxFloat64}
	found := false
	for _, e := range g.Entities() {
		c := e.Center()
		sz := e.Size()
		// Move both ends into the entity's unrotated frame.
		lox, loz := RotateXZ(ox-c.X, oz-c.Z, -e.Rotation())
		lex, lez := RotateXZ(ex-c.X, ez-c.Z, -e.Rotation())
		t, hit := segmentAABBHitT(lox, loz, lex, lez, -sz.X/2, -sz.Z/2, sz.X/2, sz.Z/2)
		if !hit {
			continue
		}
		if d := t * maxDist; d < best.Distance {
			best = Hit{Entity: e, Distance: d}
			found = true
		}
	}
	return best, found
}

// segmentAABBHitT returns the first parameter t in [0,1] at which the segment
// (ox,oy)->(ex,ey) enters the box. A start point inside the box hits at 0.
func segmentAABBHitT(ox, oy, ex, ey, minX, minY, maxX, maxY float64) (float64, bool) {
	dx := ex - ox
	dy := ey - oy

	tMin := 0.0
	tMax := 1.0

	if math.Abs(dx) < 1e-12 {
		if ox < minX || ox > maxX {
			return 0, false
		}
	} else {
		invD := 1.0 / dx
		t1 := (minX - ox) * invD
		t2 := (maxX - ox) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	if math.Abs(dy) < 1e-12 {
		if oy < minY || oy > maxY {
			return 0, false
		}
	} else {
		invD := 1.0 / dy
		t1 := (minY - oy) * invD
		t2 := (maxY - oy) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	return tMin, true
}
