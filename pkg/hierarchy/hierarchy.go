// Package hierarchy describes the tile hierarchy: the ordered set of levels
// each carrying a tile size and spatial tiling, the root directory tile
// files live under, and the file-suffix naming scheme that maps a GraphID
// to its path on disk and back.
package hierarchy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/azybler/tilestore/pkg/graphid"
	"github.com/azybler/tilestore/pkg/tiling"
)

// ErrInvalidLevel is returned when a GraphID's level has no entry in the hierarchy.
var ErrInvalidLevel = errors.New("hierarchy: invalid level")

// ErrInvalidPath is returned by TileIDFromPath when the path doesn't start
// with the hierarchy's root directory, or has too few path components.
var ErrInvalidPath = errors.New("hierarchy: invalid path")

// Level describes one level of the hierarchy: its tile size, the road
// importance threshold that gates inclusion at this level, and the spatial
// tiling derived from those parameters over the world bounds.
type Level struct {
	Level                    uint32
	TileSizeDegrees          float64
	RoadImportanceThreshold  int
	Tiles                    *tiling.Tiles
}

// TileHierarchy is the immutable, process-wide mapping from level number to
// Level, plus the root directory tile files are read from and written to.
// Construct once at startup; never mutate afterward.
type TileHierarchy struct {
	levels       map[uint32]Level
	transitLevel uint32
	tileDir      string
}

// LevelSpec is the minimal input needed to build a Level: New derives the
// spatial tiling itself so that the invariant "tiling.tile_size ==
// level.tile_size" and "tiling.bounds == world bounds" can never be violated
// by a caller.
type LevelSpec struct {
	Level                   uint32
	TileSizeDegrees         float64
	RoadImportanceThreshold int
	Subdivisions            int32
}

// New builds a TileHierarchy from a set of level specs and a root tile
// directory. The transit pseudo-level is assigned one above the highest
// (finest) road level and reuses that level's spatial tiling, per the
// invariant that the transit level has no tile size of its own.
func New(specs []LevelSpec, tileDir string) (*TileHierarchy, error) {
	if len(specs) == 0 {
		return nil, errors.New("hierarchy: at least one level is required")
	}

	levels := make(map[uint32]Level, len(specs))
	var finest *LevelSpec
	for i := range specs {
		s := specs[i]
		if _, dup := levels[s.Level]; dup {
			return nil, fmt.Errorf("hierarchy: duplicate level %d", s.Level)
		}
		t, err := tiling.New(tiling.WorldBounds, s.TileSizeDegrees, s.Subdivisions)
		if err != nil {
			return nil, fmt.Errorf("hierarchy: level %d: %w", s.Level, err)
		}
		levels[s.Level] = Level{
			Level:                   s.Level,
			TileSizeDegrees:         s.TileSizeDegrees,
			RoadImportanceThreshold: s.RoadImportanceThreshold,
			Tiles:                   t,
		}
		if finest == nil || s.Level > finest.Level {
			finest = &specs[i]
		}
	}

	transitLevel := finest.Level + 1
	levels[transitLevel] = Level{
		Level:                   transitLevel,
		TileSizeDegrees:         finest.TileSizeDegrees,
		RoadImportanceThreshold: finest.RoadImportanceThreshold,
		Tiles:                   levels[finest.Level].Tiles,
	}

	return &TileHierarchy{levels: levels, transitLevel: transitLevel, tileDir: tileDir}, nil
}

// Levels returns the hierarchy's levels, including the synthesized transit
// pseudo-level, keyed by level number. The returned map must not be mutated.
func (h *TileHierarchy) Levels() map[uint32]Level {
	return h.levels
}

// Level looks up a single level by number.
func (h *TileHierarchy) Level(level uint32) (Level, bool) {
	l, ok := h.levels[level]
	return l, ok
}

// TransitLevel returns the level number of the transit pseudo-level.
func (h *TileHierarchy) TransitLevel() uint32 {
	return h.transitLevel
}

// TileDir returns the root directory tile files are read from and written to.
func (h *TileHierarchy) TileDir() string {
	return h.tileDir
}

// digitCount returns the number of decimal digits needed to represent n (n=0 needs 1).
func digitCount(n int32) int {
	if n <= 0 {
		return 1
	}
	count := 0
	for n > 0 {
		count++
		n /= 10
	}
	return count
}

func roundUpToMultipleOf3(n int) int {
	if r := n % 3; r != 0 {
		n += 3 - r
	}
	return n
}

// FileSuffix computes the on-disk relative path for id's tile-base, in the
// form "<level>/<grouped, zero-padded tile index>.gph". The padding width is
// derived from the largest possible tile id at id's level, not from id's
// actual tile index, so that file names for a given level are fixed-width.
func (h *TileHierarchy) FileSuffix(id graphid.GraphID) (string, error) {
	level, ok := h.levels[id.Level()]
	if !ok {
		return "", fmt.Errorf("%w: level %d", ErrInvalidLevel, id.Level())
	}

	maxID := level.Tiles.MaxTileID()
	width := roundUpToMultipleOf3(digitCount(maxID))

	padded := fmt.Sprintf("%0*d", width, id.TileIndex())
	var groups []string
	for i := 0; i < len(padded); i += 3 {
		groups = append(groups, padded[i:i+3])
	}

	return fmt.Sprintf("%d/%s.gph", id.Level(), strings.Join(groups, "/")), nil
}

// TileIDFromPath inverts FileSuffix: it strips the hierarchy's root
// directory and the ".gph" suffix, splits on "/", takes the first token as
// the level, and reassembles the remaining tokens (each a base-1000 digit,
// most significant first) into the tile index. The object index is always 0.
func (h *TileHierarchy) TileIDFromPath(path string) (graphid.GraphID, error) {
	rel := path
	if h.tileDir != "" {
		if !strings.HasPrefix(path, h.tileDir) {
			return graphid.Invalid, fmt.Errorf("%w: %q does not begin with root %q", ErrInvalidPath, path, h.tileDir)
		}
		rel = path[len(h.tileDir):]
	}
	rel = strings.Trim(rel, "/")
	rel = strings.TrimSuffix(rel, ".gph")

	tokens := strings.Split(rel, "/")
	if len(tokens) < 2 {
		return graphid.Invalid, fmt.Errorf("%w: %q has fewer than two path components", ErrInvalidPath, path)
	}

	level, err := strconv.ParseUint(tokens[0], 10, 32)
	if err != nil {
		return graphid.Invalid, fmt.Errorf("%w: bad level %q: %v", ErrInvalidPath, tokens[0], err)
	}

	idStr := strings.Join(tokens[1:], "")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return graphid.Invalid, fmt.Errorf("%w: bad tile index %q: %v", ErrInvalidPath, idStr, err)
	}

	return graphid.New(uint32(level), uint32(id), 0)
}
