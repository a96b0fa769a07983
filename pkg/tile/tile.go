// Package tile implements the on-disk tile binary format: the header, its
// fixed-order sections, and the accessor that projects typed, bounds-checked
// views over a single tile's bytes.
package tile

import (
	"encoding/binary"
	"os"

	"github.com/azybler/tilestore/pkg/graphid"
	"github.com/azybler/tilestore/pkg/hierarchy"
)

// Tile is a read-only, borrowed-view accessor over one opened tile file. A
// Tile with Empty() true represents a probed-but-absent tile, a normal
// outcome, not an error. Every accessor method is safe for concurrent use:
// nothing here mutates after Open returns.
type Tile struct {
	path   string
	header *Header

	nodes              []byte
	directedEdges      []byte
	departures         []byte
	stops              []byte
	routes             []byte
	transfers          []byte
	accessRestrictions []byte
	signs              []byte
	admins             []byte
	edgeCells          []byte // flat array of GraphID, N*N cells carved out via header.CellOffsets

	edgeInfo []byte
	textList []byte
}

// Empty reports whether this accessor represents a tile that does not exist
// on disk. An empty accessor has no header and answers every index query
// with IndexOutOfRange / empty results, per the "probe" contract in §4.5.
func (t *Tile) Empty() bool {
	return t.header == nil
}

// Header returns the tile's header, or nil if the tile is empty.
func (t *Tile) Header() *Header {
	return t.header
}

// Open loads the tile addressed by id from h's configured tile directory.
// A missing file is not an error: Open returns an empty Tile. Any other read
// error is returned unchanged. A file whose integrity trailer, header, or
// declared sizes disagree with its actual bytes fails with *CorruptTileError.
func Open(id graphid.GraphID, h *hierarchy.TileHierarchy) (*Tile, error) {
	suffix, err := h.FileSuffix(id)
	if err != nil {
		return nil, err
	}
	path := h.TileDir() + "/" + suffix

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Tile{path: path}, nil
	}
	if err != nil {
		return nil, err
	}

	return OpenBytes(path, raw)
}

// OpenBytes builds a Tile accessor directly from a tile file's raw bytes
// (including its integrity trailer). It is exported so tooling and tests
// that hold a tile in memory need not round-trip through the filesystem.
func OpenBytes(path string, raw []byte) (*Tile, error) {
	data, err := verifyTrailer(raw)
	if err != nil {
		return nil, &CorruptTileError{Path: path, Reason: err.Error()}
	}

	header, consumed, err := UnmarshalHeader(data)
	if err != nil {
		return nil, &CorruptTileError{Path: path, Reason: err.Error()}
	}
	if uint64(len(raw)) != header.FileSize {
		return nil, &CorruptTileError{Path: path, Reason: "file_size in header disagrees with actual file size"}
	}

	t := &Tile{path: path, header: header}
	offset := consumed

	take := func(count, size int, name string) ([]byte, error) {
		n := count * size
		if offset+n > len(data) {
			return nil, &CorruptTileError{Path: path, Reason: name + " section runs past end of file"}
		}
		b := data[offset : offset+n]
		offset += n
		return b, nil
	}

	if t.nodes, err = take(int(header.NodeCount), nodeSize, "node"); err != nil {
		return nil, err
	}
	if t.directedEdges, err = take(int(header.DirectedEdgeCount), directedEdgeSize, "directed edge"); err != nil {
		return nil, err
	}
	if t.departures, err = take(int(header.DepartureCount), transitDepartureSize, "departure"); err != nil {
		return nil, err
	}
	if t.stops, err = take(int(header.StopCount), transitStopSize, "stop"); err != nil {
		return nil, err
	}
	if t.routes, err = take(int(header.RouteCount), transitRouteSize, "route"); err != nil {
		return nil, err
	}
	if t.transfers, err = take(int(header.TransferCount), transitTransferSize, "transfer"); err != nil {
		return nil, err
	}
	if t.accessRestrictions, err = take(int(header.AccessRestrictionCount), accessRestrictionSize, "access restriction"); err != nil {
		return nil, err
	}
	if t.signs, err = take(int(header.SignCount), signSize, "sign"); err != nil {
		return nil, err
	}
	if t.admins, err = take(int(header.AdminCount), adminSize, "admin"); err != nil {
		return nil, err
	}

	edgeCellCount := 0
	for _, c := range header.CellOffsets {
		if int(c.End) > edgeCellCount {
			edgeCellCount = int(c.End)
		}
	}
	if t.edgeCells, err = take(edgeCellCount, 8, "edge cell"); err != nil {
		return nil, err
	}

	if int(header.EdgeInfoOffset) < offset {
		return nil, &CorruptTileError{Path: path, Reason: "edgeinfo_offset precedes prior sections"}
	}
	if int(header.TextListOffset) > len(data) || header.TextListOffset < header.EdgeInfoOffset {
		return nil, &CorruptTileError{Path: path, Reason: "textlist_offset out of range"}
	}
	t.edgeInfo = data[header.EdgeInfoOffset:header.TextListOffset]
	t.textList = data[header.TextListOffset:]

	return t, nil
}

func (t *Tile) tileIDForErrors() uint64 {
	if t.header == nil {
		return uint64(graphid.Invalid)
	}
	return uint64(t.header.GraphID)
}

// Node returns the node at index i.
func (t *Tile) Node(i int) (Node, error) {
	count := int(t.countOr(0, func(h *Header) int { return int(h.NodeCount) }))
	if i < 0 || i >= count {
		return Node{}, &IndexOutOfRangeError{TileID: t.tileIDForErrors(), Section: "node", Index: i, Count: count}
	}
	return unmarshalNode(t.nodes[i*nodeSize : (i+1)*nodeSize]), nil
}

// DirectedEdge returns the directed edge at index i.
func (t *Tile) DirectedEdge(i int) (DirectedEdge, error) {
	count := t.countOr(0, func(h *Header) int { return int(h.DirectedEdgeCount) })
	if i < 0 || i >= count {
		return DirectedEdge{}, &IndexOutOfRangeError{TileID: t.tileIDForErrors(), Section: "directed_edge", Index: i, Count: count}
	}
	return unmarshalDirectedEdge(t.directedEdges[i*directedEdgeSize : (i+1)*directedEdgeSize]), nil
}

// Admin returns the admin record at index i.
func (t *Tile) Admin(i int) (Admin, error) {
	count := t.countOr(0, func(h *Header) int { return int(h.AdminCount) })
	if i < 0 || i >= count {
		return Admin{}, &IndexOutOfRangeError{TileID: t.tileIDForErrors(), Section: "admin", Index: i, Count: count}
	}
	return unmarshalAdmin(t.admins[i*adminSize : (i+1)*adminSize]), nil
}

// TransitStop returns the transit stop record at index i.
func (t *Tile) TransitStop(i int) (TransitStop, error) {
	count := t.countOr(0, func(h *Header) int { return int(h.StopCount) })
	if i < 0 || i >= count {
		return TransitStop{}, &IndexOutOfRangeError{TileID: t.tileIDForErrors(), Section: "transit_stop", Index: i, Count: count}
	}
	return unmarshalTransitStop(t.stops[i*transitStopSize : (i+1)*transitStopSize]), nil
}

func (t *Tile) countOr(empty int, f func(*Header) int) int {
	if t.header == nil {
		return empty
	}
	return f(t.header)
}

// GetName returns the null-terminated string at textOffset in the text list.
func (t *Tile) GetName(textOffset uint32) (string, error) {
	if t.header == nil || int(textOffset) >= len(t.textList) {
		size := 0
		if t.header != nil {
			size = len(t.textList)
		}
		return "", &IndexOutOfRangeError{TileID: t.tileIDForErrors(), Section: "textlist", Index: int(textOffset), Count: size}
	}
	end := textOffset
	for end < uint32(len(t.textList)) && t.textList[end] != 0 {
		end++
	}
	return string(t.textList[textOffset:end]), nil
}

// GetCell returns the half-open [begin, end) range of GraphIds stored in the
// edge-cell array for the spatial sub-cell at (column, row).
func (t *Tile) GetCell(column, row int) ([]graphid.GraphID, error) {
	if t.header == nil {
		return nil, nil
	}
	n := int(t.header.CellGridDimension)
	if column < 0 || column >= n || row < 0 || row >= n {
		return nil, &IndexOutOfRangeError{TileID: t.tileIDForErrors(), Section: "edge_cell", Index: row*n + column, Count: n * n}
	}
	cell := t.header.CellOffsets[row*n+column]
	out := make([]graphid.GraphID, 0, cell.End-cell.Begin)
	for i := cell.Begin; i < cell.End; i++ {
		b := t.edgeCells[i*8 : i*8+8]
		out = append(out, graphid.GraphID(binary.LittleEndian.Uint64(b)))
	}
	return out, nil
}
