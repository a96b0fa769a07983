// Package connectivity builds, per hierarchy level, a map of which tiles
// exist on disk and how they group into connected components, and projects
// that map to GeoJSON or a raster for visualization.
package connectivity

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"

	"github.com/azybler/tilestore/pkg/hierarchy"
)

// Map is an immutable snapshot of tile presence and component coloring for
// every level of a hierarchy, as of the time Build was called.
type Map struct {
	hierarchy *hierarchy.TileHierarchy
	colors    map[uint32]map[int32]int32 // level -> tileID -> color, absent if the level's scan failed
}

// Build walks every level's tile directory under h, colors each level's
// present tiles by 4-connectivity, and returns the combined snapshot. A
// level whose directory is missing, or whose scan otherwise fails
// (including a scan cut short by cancelling ctx), is simply absent from the
// result; the returned error is always nil.
func Build(ctx context.Context, h *hierarchy.TileHierarchy) (*Map, error) {
	var mu sync.Mutex
	colors := make(map[uint32]map[int32]int32)

	g, ctx := errgroup.WithContext(ctx)
	for _, level := range h.Levels() {
		level := level
		g.Go(func() error {
			tiles, err := scanLevel(ctx, h, level)
			if err != nil {
				// Missing or unreadable directory: the level is simply absent.
				return nil
			}
			level.Tiles.ColorMap(tiles)

			mu.Lock()
			colors[level.Level] = tiles
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Map{hierarchy: h, colors: colors}, nil
}

// scanLevel walks the level's subdirectory of the tile root and returns the
// set of present tile ids, each initialized to color 0 (uncolored).
func scanLevel(ctx context.Context, h *hierarchy.TileHierarchy, level hierarchy.Level) (map[int32]int32, error) {
	root := filepath.Join(h.TileDir(), fmt.Sprintf("%d", level.Level))
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	tiles := make(map[int32]int32)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".gph") {
			return nil
		}
		id, err := h.TileIDFromPath(path)
		if err != nil {
			return nil // not a tile file this hierarchy recognizes; skip
		}
		tiles[int32(id.TileIndex())] = 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tiles, nil
}

// ColorOf returns the component color of a tile, and whether that tile is
// present on disk for the level at all.
func (m *Map) ColorOf(level uint32, tileID int32) (int32, bool) {
	byTile, ok := m.colors[level]
	if !ok {
		return 0, false
	}
	color, ok := byTile[tileID]
	return color, ok
}

// component groups tile ids sharing a color, for ordering by size.
type component struct {
	color int32
	tiles []int32
}

func componentsForLevel(byTile map[int32]int32) []component {
	byColor := make(map[int32][]int32)
	for tile, color := range byTile {
		byColor[color] = append(byColor[color], tile)
	}
	comps := make([]component, 0, len(byColor))
	for color, tiles := range byColor {
		sort.Slice(tiles, func(i, j int) bool { return tiles[i] < tiles[j] })
		comps = append(comps, component{color: color, tiles: tiles})
	}
	// Largest component first; ties broken by ascending color, per §6.
	sort.Slice(comps, func(i, j int) bool {
		if len(comps[i].tiles) != len(comps[j].tiles) {
			return len(comps[i].tiles) > len(comps[j].tiles)
		}
		return comps[i].color < comps[j].color
	})
	return comps
}

// ToGeoJson renders level's connectivity as a FeatureCollection of
// MultiPoint features (one per component, ordered largest-first), each
// carrying a "color" property, per §6.
func (m *Map) ToGeoJson(level uint32) (*geojson.FeatureCollection, error) {
	byTile, ok := m.colors[level]
	if !ok {
		return nil, fmt.Errorf("%w: level %d", hierarchy.ErrInvalidLevel, level)
	}
	lvl, _ := m.hierarchy.Level(level)

	fc := geojson.NewFeatureCollection()
	for _, comp := range componentsForLevel(byTile) {
		points := make(orb.MultiPoint, 0, len(comp.tiles))
		for _, tile := range comp.tiles {
			x, y := lvl.Tiles.Center(tile)
			points = append(points, orb.Point{round6(x), round6(y)})
		}
		feature := geojson.NewFeature(points)
		feature.Properties["color"] = comp.color
		fc.Append(feature)
	}
	return fc, nil
}

// round6 rounds to 6 decimal places, the coordinate precision §6 specifies
// for GeoJSON output.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// ToImage renders level's connectivity as a row-major raster: length
// columns*rows, index i = row*columns + column, value 0 = absent tile,
// otherwise the component color.
func (m *Map) ToImage(level uint32) ([]uint32, int, int, error) {
	byTile, ok := m.colors[level]
	if !ok {
		return nil, 0, 0, fmt.Errorf("%w: level %d", hierarchy.ErrInvalidLevel, level)
	}
	lvl, _ := m.hierarchy.Level(level)
	columns, rows := int(lvl.Tiles.Columns()), int(lvl.Tiles.Rows())

	img := make([]uint32, columns*rows)
	for tile, color := range byTile {
		row, col := lvl.Tiles.RowColumn(tile)
		img[int(row)*columns+int(col)] = uint32(color)
	}
	return img, columns, rows, nil
}
