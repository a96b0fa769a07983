package tiling

import (
	"github.com/azybler/tilestore/pkg/geo"
)

// CellSet is the sub-cell addresses touched within a single tile, keyed by
// (y_sub*subdivisions + x_sub).
type CellSet map[int32]struct{}

// Intersection maps a tile id to the set of its sub-cells touched by a
// polyline or disc query.
type Intersection map[int32]CellSet

func (ix Intersection) add(tile, subcell int32) {
	cells, ok := ix[tile]
	if !ok {
		cells = make(CellSet)
		ix[tile] = cells
	}
	cells[subcell] = struct{}{}
}

// crossProductSign returns the sign of the cross product of (v-u) and (p-u):
// positive when p is left of the directed line u->v, negative when right,
// zero when collinear.
func crossProductSign(ux, uy, vx, vy, px, py float64) float64 {
	return (vx-ux)*(py-uy) - (vy-uy)*(px-ux)
}

// Intersect returns, for each tile touched by the polyline, the set of
// sub-cells the polyline passes through. Each consecutive pair of points is
// treated as a segment; segments with either endpoint outside the tiling's
// bounds are clipped against the bounds first and skipped entirely if
// clipping leaves nothing. Longitude wrap-around is not handled: callers
// must split trans-antimeridian input themselves.
func (t *Tiles) Intersect(points [][2]float64) Intersection {
	result := make(Intersection)
	if len(points) < 2 {
		return result
	}

	for i := 0; i < len(points)-1; i++ {
		ux, uy := points[i][0], points[i][1]
		vx, vy := points[i+1][0], points[i+1][1]

		if t.TileID(ux, uy) == NoTile || t.TileID(vx, vy) == NoTile {
			cx0, cy0, cx1, cy1, ok := geo.ClipSegment(ux, uy, vx, vy, t.bounds)
			if !ok {
				continue
			}
			ux, uy, vx, vy = cx0, cy0, cx1, cy1
		}

		t.walkSegment(result, ux, uy, vx, vy)
	}
	return result
}

func (t *Tiles) walkSegment(result Intersection, ux, uy, vx, vy float64) {
	width := t.bounds.MaxX - t.bounds.MinX
	height := t.bounds.MaxY - t.bounds.MinY
	totalCols := int64(t.columns) * int64(t.subdivisions)
	totalRows := int64(t.rows) * int64(t.subdivisions)

	xStart := int64((ux - t.bounds.MinX) / width * float64(totalCols))
	yStart := int64((uy - t.bounds.MinY) / height * float64(totalRows))
	xEnd := int64((vx - t.bounds.MinX) / width * float64(totalCols))
	yEnd := int64((vy - t.bounds.MinY) / height * float64(totalRows))

	if xStart > xEnd {
		xStart, xEnd = xEnd, xStart
	}
	if yStart > yEnd {
		yStart, yEnd = yEnd, yStart
	}
	if xEnd > totalCols-1 {
		xEnd = totalCols - 1
	}
	if yEnd > totalRows-1 {
		yEnd = totalRows - 1
	}
	if xStart < 0 {
		xStart = 0
	}
	if yStart < 0 {
		yStart = 0
	}

	x, y := xStart, yStart
	sub := int64(t.subdivisions)
	for {
		tileCol := int32(x / sub)
		tileRow := int32(y / sub)
		tile := tileRow*t.columns + tileCol
		subcell := int32((y%sub)*sub + x%sub)
		result.add(tile, subcell)

		// Resolved per the off-by-one fix: the walk must continue until BOTH
		// axes have reached their endpoint, not stop as soon as either does,
		// or a box spanning two tiles in both directions loses a tile.
		if x == xEnd && y == yEnd {
			break
		}

		cornerX := t.bounds.MinX + t.subdivisionSize*float64(x)
		cornerY := t.bounds.MinY + t.subdivisionSize*float64(y)
		if crossProductSign(ux, uy, vx, vy, cornerX, cornerY) < 0 {
			if y != yEnd {
				y++
			} else {
				x++
			}
		} else {
			if x != xEnd {
				x++
			} else {
				y++
			}
		}
	}
}

// IntersectDisc returns, for each tile whose bounds overlap the disc's
// bounding box, the set of sub-cells whose centers fall within the disc of
// the given radius (in the same linear units as the tiling's bounds)
// centered at (cx, cy).
func (t *Tiles) IntersectDisc(cx, cy, radius float64) Intersection {
	result := make(Intersection)
	if radius <= 0 {
		return result
	}

	box := geo.Box{MinX: cx - radius, MinY: cy - radius, MaxX: cx + radius, MaxY: cy + radius}
	for _, tileID := range t.TileList(box) {
		tb := t.TileBounds(tileID)
		if !boxesIntersect(box, tb) {
			continue
		}
		for ySub := int32(0); ySub < t.subdivisions; ySub++ {
			for xSub := int32(0); xSub < t.subdivisions; xSub++ {
				centerX := tb.MinX + t.subdivisionSize*(float64(xSub)+0.5)
				centerY := tb.MinY + t.subdivisionSize*(float64(ySub)+0.5)
				dx := centerX - cx
				dy := centerY - cy
				if dx*dx+dy*dy <= radius*radius {
					result.add(tileID, ySub*t.subdivisions+xSub)
				}
			}
		}
	}
	return result
}
