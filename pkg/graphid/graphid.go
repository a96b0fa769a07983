// Package graphid implements the packed 64-bit object identifier used
// throughout the tile store: every cross-reference between nodes, edges,
// and tiles is a GraphID value, never a pointer.
package graphid

import "fmt"

// Bit widths of the packed fields, least-significant first.
const (
	levelBits = 3
	tileBits  = 22
	indexBits = 21
	spareBits = 18 // reserved, always zero on construction

	levelShift = 0
	tileShift  = levelShift + levelBits
	indexShift = tileShift + tileBits
	spareShift = indexShift + indexBits

	levelMask = uint64(1)<<levelBits - 1
	tileMask  = uint64(1)<<tileBits - 1
	indexMask = uint64(1)<<indexBits - 1

	// MaxLevel is the largest level value that fits in levelBits.
	MaxLevel = uint32(levelMask)
	// MaxTileIndex is the largest tile index that fits in tileBits.
	MaxTileIndex = uint32(tileMask)
	// MaxIndex is the largest object index that fits in indexBits.
	MaxIndex = uint32(indexMask)
)

// Invalid is the sentinel identifier: all 64 bits set.
const Invalid GraphID = 0xFFFFFFFFFFFFFFFF

// GraphID is a 64-bit value identifying an object (node, edge, ...) within
// a specific tile. GraphID is a value type: equality and ordering are
// bitwise on the packed form.
type GraphID uint64

// OutOfRangeError reports that a field passed to New exceeded its bit width.
type OutOfRangeError struct {
	Field string
	Value uint32
	Max   uint32
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("graphid: %s=%d exceeds maximum %d", e.Field, e.Value, e.Max)
}

// New packs (level, tileIndex, objectIndex) into a GraphID. It fails with
// *OutOfRangeError if any field exceeds its bit width.
func New(level uint32, tileIndex uint32, objectIndex uint32) (GraphID, error) {
	if level > MaxLevel {
		return Invalid, &OutOfRangeError{Field: "level", Value: level, Max: MaxLevel}
	}
	if tileIndex > MaxTileIndex {
		return Invalid, &OutOfRangeError{Field: "tileIndex", Value: tileIndex, Max: MaxTileIndex}
	}
	if objectIndex > MaxIndex {
		return Invalid, &OutOfRangeError{Field: "objectIndex", Value: objectIndex, Max: MaxIndex}
	}
	id := (uint64(level) & levelMask) << levelShift
	id |= (uint64(tileIndex) & tileMask) << tileShift
	id |= (uint64(objectIndex) & indexMask) << indexShift
	return GraphID(id), nil
}

// MustNew is like New but panics on error. Intended for literals in tests
// and tools where the fields are known constants.
func MustNew(level, tileIndex, objectIndex uint32) GraphID {
	id, err := New(level, tileIndex, objectIndex)
	if err != nil {
		panic(err)
	}
	return id
}

// IsValid reports whether id is anything other than the Invalid sentinel.
func (id GraphID) IsValid() bool {
	return id != Invalid
}

// Level returns the hierarchy level component.
func (id GraphID) Level() uint32 {
	return uint32(uint64(id)>>levelShift) & uint32(levelMask)
}

// TileIndex returns the tile-index-within-level component.
func (id GraphID) TileIndex() uint32 {
	return uint32(uint64(id)>>tileShift) & uint32(tileMask)
}

// Index returns the object-index-within-tile component.
func (id GraphID) Index() uint32 {
	return uint32(uint64(id)>>indexShift) & uint32(indexMask)
}

// TileBase returns the identifier for the same tile with the object index
// zeroed — the canonical identifier for "this tile" rather than an object
// inside it.
func (id GraphID) TileBase() GraphID {
	if id == Invalid {
		return Invalid
	}
	masked := uint64(id) &^ (indexMask << indexShift)
	return GraphID(masked)
}

// String renders the identifier as "level/tileIndex/index" for logging.
func (id GraphID) String() string {
	if id == Invalid {
		return "graphid(invalid)"
	}
	return fmt.Sprintf("%d/%d/%d", id.Level(), id.TileIndex(), id.Index())
}
