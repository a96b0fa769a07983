package geo

// Box is an axis-aligned rectangle in the same coordinate space as the
// points passed to ClipSegment (typically degrees: x=longitude, y=latitude).
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// Contains reports whether (x,y) lies within the box, inclusive of edges.
func (b Box) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// ClipSegment clips the segment (x0,y0)-(x1,y1) against b using the
// Liang-Barsky algorithm. ok is false if the segment lies entirely outside b.
func ClipSegment(x0, y0, x1, y1 float64, b Box) (cx0, cy0, cx1, cy1 float64, ok bool) {
	dx := x1 - x0
	dy := y1 - y0

	tMin, tMax := 0.0, 1.0

	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		t := q / p
		if p < 0 {
			if t > tMax {
				return false
			}
			if t > tMin {
				tMin = t
			}
		} else {
			if t < tMin {
				return false
			}
			if t < tMax {
				tMax = t
			}
		}
		return true
	}

	if !clip(-dx, x0-b.MinX) {
		return 0, 0, 0, 0, false
	}
	if !clip(dx, b.MaxX-x0) {
		return 0, 0, 0, 0, false
	}
	if !clip(-dy, y0-b.MinY) {
		return 0, 0, 0, 0, false
	}
	if !clip(dy, b.MaxY-y0) {
		return 0, 0, 0, 0, false
	}

	if tMin > tMax {
		return 0, 0, 0, 0, false
	}

	cx0 = x0 + tMin*dx
	cy0 = y0 + tMin*dy
	cx1 = x0 + tMax*dx
	cy1 = y0 + tMax*dy
	return cx0, cy0, cx1, cy1, true
}
