// Package tiling implements the planar grid spatial index ("Tiles") that
// underlies every on-disk tile: row/column arithmetic, neighbor lookups,
// bounding-box tile enumeration, connected-component coloring, and
// polyline/disc sub-cell intersection.
package tiling

import (
	"errors"
	"fmt"
	"math"

	"github.com/azybler/tilestore/pkg/geo"
)

// NoTile is the sentinel returned by Row, Col, and TileID for points outside
// the tiling's bounds.
const NoTile int32 = -1

// WorldBounds is the full-planet bounding box every level's tiling must
// share: longitude in [-180, 180], latitude in [-90, 90].
var WorldBounds = geo.Box{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}

// ErrInvalidConfig is returned by New when the tile size, subdivision count,
// or bounds are degenerate.
var ErrInvalidConfig = errors.New("tiling: invalid config")

// Tiles is an immutable planar grid over a bounding box. It is safe for
// concurrent use by multiple goroutines: all methods are read-only.
type Tiles struct {
	bounds          geo.Box
	tileSize        float64
	subdivisions    int32
	subdivisionSize float64
	columns         int32
	rows            int32
}

// New constructs a Tiles over bounds, split into tileSize-sided square
// tiles, each further divided into subdivisions x subdivisions sub-cells.
func New(bounds geo.Box, tileSize float64, subdivisions int32) (*Tiles, error) {
	if tileSize <= 0 {
		return nil, fmt.Errorf("%w: tile_size must be > 0, got %v", ErrInvalidConfig, tileSize)
	}
	if subdivisions <= 0 {
		return nil, fmt.Errorf("%w: n_subdivisions must be > 0, got %v", ErrInvalidConfig, subdivisions)
	}
	width := bounds.MaxX - bounds.MinX
	height := bounds.MaxY - bounds.MinY
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: degenerate bounds %+v", ErrInvalidConfig, bounds)
	}
	return &Tiles{
		bounds:          bounds,
		tileSize:        tileSize,
		subdivisions:    subdivisions,
		subdivisionSize: tileSize / float64(subdivisions),
		columns:         int32(math.Ceil(width / tileSize)),
		rows:            int32(math.Ceil(height / tileSize)),
	}, nil
}

// TileSize returns the side length of a tile, in the same units as Bounds.
func (t *Tiles) TileSize() float64 { return t.tileSize }

// Bounds returns the overall bounding box of the tiling system.
func (t *Tiles) Bounds() geo.Box { return t.bounds }

// Subdivisions returns the number of sub-cells per tile edge.
func (t *Tiles) Subdivisions() int32 { return t.subdivisions }

// Columns returns the number of tile columns.
func (t *Tiles) Columns() int32 { return t.columns }

// Rows returns the number of tile rows.
func (t *Tiles) Rows() int32 { return t.rows }

// MaxTileID returns the largest valid tile id for these bounds/tile size
// (equivalently, columns*rows - 1).
func (t *Tiles) MaxTileID() int32 {
	return t.columns*t.rows - 1
}

// Row returns the row index containing y, or NoTile if y is outside bounds.
func (t *Tiles) Row(y float64) int32 {
	if y < t.bounds.MinY || y > t.bounds.MaxY {
		return NoTile
	}
	if y == t.bounds.MaxY {
		return t.rows - 1
	}
	return int32((y - t.bounds.MinY) / t.tileSize)
}

// Col returns the column index containing x, or NoTile if x is outside bounds.
func (t *Tiles) Col(x float64) int32 {
	if x < t.bounds.MinX || x > t.bounds.MaxX {
		return NoTile
	}
	if x == t.bounds.MaxX {
		return t.columns - 1
	}
	col := (x - t.bounds.MinX) / t.tileSize
	if col >= 0 {
		return int32(col)
	}
	return int32(col - 1)
}

// TileID returns the id of the tile containing (x, y), or NoTile if the
// point lies outside bounds.
func (t *Tiles) TileID(x, y float64) int32 {
	if y < t.bounds.MinY || x < t.bounds.MinX || y > t.bounds.MaxY || x > t.bounds.MaxX {
		return NoTile
	}
	return t.Row(y)*t.columns + t.Col(x)
}

// TileIDFromRowCol returns the id of the tile at (col, row). The result is
// not bounds-checked; callers that derive row/col arithmetically (e.g.
// neighbor offsets) may legitimately produce an id outside [0, TileCount).
func (t *Tiles) TileIDFromRowCol(col, row int32) int32 {
	return row*t.columns + col
}

// RowColumn splits a tile id back into (row, col).
func (t *Tiles) RowColumn(tileID int32) (row, col int32) {
	return tileID / t.columns, tileID % t.columns
}

// TileCount returns the total number of tiles in the system.
func (t *Tiles) TileCount() int32 {
	return t.columns * t.rows
}

// Base returns the south-west corner of tileID. The formula is fixed as
// min + col*size (multiplication before addition) so that producers and
// consumers built from this package always agree bit-for-bit.
func (t *Tiles) Base(tileID int32) (x, y float64) {
	row, col := t.RowColumn(tileID)
	return t.bounds.MinX + float64(col)*t.tileSize, t.bounds.MinY + float64(row)*t.tileSize
}

// TileBounds returns the axis-aligned rectangle [base, base+tileSize] for tileID.
func (t *Tiles) TileBounds(tileID int32) geo.Box {
	x, y := t.Base(tileID)
	return geo.Box{MinX: x, MinY: y, MaxX: x + t.tileSize, MaxY: y + t.tileSize}
}

// TileBoundsRowCol returns the bounds of the tile at (col, row) directly,
// without needing a linear tile id.
func (t *Tiles) TileBoundsRowCol(col, row int32) geo.Box {
	x := t.bounds.MinX + float64(col)*t.tileSize
	y := t.bounds.MinY + float64(row)*t.tileSize
	return geo.Box{MinX: x, MinY: y, MaxX: x + t.tileSize, MaxY: y + t.tileSize}
}

// Center returns the center point of tileID.
func (t *Tiles) Center(tileID int32) (x, y float64) {
	bx, by := t.Base(tileID)
	return bx + t.tileSize*0.5, by + t.tileSize*0.5
}

// GetRelativeTileID returns the id reached from initialTile by moving
// deltaRows rows and deltaCols columns. The result is not bounds-checked.
func (t *Tiles) GetRelativeTileID(initialTile, deltaRows, deltaCols int32) int32 {
	return initialTile + deltaRows*t.columns + deltaCols
}

// TileOffsets returns the (row, col) delta between initialTileID and newTileID.
func (t *Tiles) TileOffsets(initialTileID, newTileID int32) (deltaRows, deltaCols int32) {
	delta := newTileID - initialTileID
	deltaRows = newTileID/t.columns - initialTileID/t.columns
	deltaCols = delta - deltaRows*t.columns
	return
}

// LeftNeighbor returns the tile to the west, wrapping to the end of the row.
func (t *Tiles) LeftNeighbor(tileID int32) int32 {
	_, col := t.RowColumn(tileID)
	if col > 0 {
		return tileID - 1
	}
	return tileID + t.columns - 1
}

// RightNeighbor returns the tile to the east, wrapping to the start of the row.
func (t *Tiles) RightNeighbor(tileID int32) int32 {
	_, col := t.RowColumn(tileID)
	if col < t.columns-1 {
		return tileID + 1
	}
	return tileID - t.columns + 1
}

// TopNeighbor returns the tile to the north, clamped to itself past the last row.
func (t *Tiles) TopNeighbor(tileID int32) int32 {
	if tileID < t.TileCount()-t.columns {
		return tileID + t.columns
	}
	return tileID
}

// BottomNeighbor returns the tile to the south, clamped to itself before row 0.
func (t *Tiles) BottomNeighbor(tileID int32) int32 {
	if tileID < t.columns {
		return tileID
	}
	return tileID - t.columns
}

// AreNeighbors reports whether b is one of a's four edge neighbors.
func (t *Tiles) AreNeighbors(a, b int32) bool {
	return b == t.TopNeighbor(a) || b == t.RightNeighbor(a) ||
		b == t.BottomNeighbor(a) || b == t.LeftNeighbor(a)
}

// boxesIntersect reports whether two axis-aligned boxes overlap.
func boxesIntersect(a, b geo.Box) bool {
	return a.MinX <= b.MaxX && a.MaxX >= b.MinX && a.MinY <= b.MaxY && a.MaxY >= b.MinY
}

// TileList returns every tile whose bounds intersect box, found by a
// breadth-first spiral outward from the tile containing box's center. It
// returns nil if the center of box lies outside the tiling's bounds.
func (t *Tiles) TileList(box geo.Box) []int32 {
	cx := (box.MinX + box.MaxX) / 2
	cy := (box.MinY + box.MaxY) / 2
	center := t.TileID(cx, cy)
	if center == NoTile {
		return nil
	}

	var result []int32
	checklist := []int32{center}
	visited := map[int32]struct{}{center: {}}

	for len(checklist) > 0 {
		tileID := checklist[0]
		checklist = checklist[1:]
		result = append(result, tileID)

		for _, neighbor := range []int32{
			t.LeftNeighbor(tileID),
			t.RightNeighbor(tileID),
			t.TopNeighbor(tileID),
			t.BottomNeighbor(tileID),
		} {
			if _, seen := visited[neighbor]; seen {
				continue
			}
			if boxesIntersect(box, t.TileBounds(neighbor)) {
				checklist = append(checklist, neighbor)
				visited[neighbor] = struct{}{}
			}
		}
	}
	return result
}

// ColorMap assigns a positive color to each 4-connected component of the
// tiles present as keys in tiles. Keys are mutated in place: every present
// tile ends up with a color >= 1. Colors start at 1 and increase by one per
// component, in the order Go's map iteration reaches the components, so
// which component receives which number can differ between calls.
func (t *Tiles) ColorMap(tiles map[int32]int32) {
	color := int32(1)
	for start := range tiles {
		if tiles[start] > 0 {
			continue
		}
		tiles[start] = color
		checklist := []int32{start}
		for len(checklist) > 0 {
			next := checklist[0]
			checklist = checklist[1:]

			for _, neighbor := range []int32{
				t.LeftNeighbor(next),
				t.RightNeighbor(next),
				t.TopNeighbor(next),
				t.BottomNeighbor(next),
			} {
				if c, present := tiles[neighbor]; present && c == 0 {
					tiles[neighbor] = color
					checklist = append(checklist, neighbor)
				}
			}
		}
		color++
	}
}
