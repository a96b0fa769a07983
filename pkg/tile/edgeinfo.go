package tile

import "encoding/binary"

// EdgeInfo is the variable-length record a DirectedEdge's EdgeInfoOffset
// points into: the edge's shape (as a polyline of lat/lng offsets from the
// tile base, 1e6-scaled fixed point) and its name text offsets.
type EdgeInfo struct {
	NameOffsets []uint32
	Shape       [][2]int32 // [lat, lng] fixed-point, 1e6 scale
}

// edgeInfoAt decodes the EdgeInfo record starting at byte offset in the
// tile's edge-info region: a uint32 name count, that many uint32 text
// offsets, a uint32 shape-point count, then that many (int32,int32) pairs.
func (t *Tile) edgeInfoAt(offset uint32) (EdgeInfo, error) {
	b := t.edgeInfo
	if int(offset) >= len(b) {
		return EdgeInfo{}, &IndexOutOfRangeError{TileID: t.tileIDForErrors(), Section: "edge_info", Index: int(offset), Count: len(b)}
	}
	pos := int(offset)

	need := func(n int) error {
		if pos+n > len(b) {
			return &CorruptTileError{Path: t.path, Reason: "edge_info record runs past end of edge-info region"}
		}
		return nil
	}

	if err := need(4); err != nil {
		return EdgeInfo{}, err
	}
	nameCount := binary.LittleEndian.Uint32(b[pos : pos+4])
	pos += 4

	if err := need(int(nameCount) * 4); err != nil {
		return EdgeInfo{}, err
	}
	names := make([]uint32, nameCount)
	for i := range names {
		names[i] = binary.LittleEndian.Uint32(b[pos : pos+4])
		pos += 4
	}

	if err := need(4); err != nil {
		return EdgeInfo{}, err
	}
	shapeCount := binary.LittleEndian.Uint32(b[pos : pos+4])
	pos += 4

	if err := need(int(shapeCount) * 8); err != nil {
		return EdgeInfo{}, err
	}
	shape := make([][2]int32, shapeCount)
	for i := range shape {
		shape[i][0] = int32(binary.LittleEndian.Uint32(b[pos : pos+4]))
		shape[i][1] = int32(binary.LittleEndian.Uint32(b[pos+4 : pos+8]))
		pos += 8
	}

	return EdgeInfo{NameOffsets: names, Shape: shape}, nil
}

// EdgeInfo returns the shape/name record a directed edge points at.
func (t *Tile) EdgeInfo(e DirectedEdge) (EdgeInfo, error) {
	return t.edgeInfoAt(e.EdgeInfoOffset)
}

// marshalEdgeInfo encodes an EdgeInfo record in the wire layout edgeInfoAt decodes.
func marshalEdgeInfo(info EdgeInfo) []byte {
	size := 4 + len(info.NameOffsets)*4 + 4 + len(info.Shape)*8
	b := make([]byte, size)
	pos := 0
	binary.LittleEndian.PutUint32(b[pos:pos+4], uint32(len(info.NameOffsets)))
	pos += 4
	for _, off := range info.NameOffsets {
		binary.LittleEndian.PutUint32(b[pos:pos+4], off)
		pos += 4
	}
	binary.LittleEndian.PutUint32(b[pos:pos+4], uint32(len(info.Shape)))
	pos += 4
	for _, p := range info.Shape {
		binary.LittleEndian.PutUint32(b[pos:pos+4], uint32(p[0]))
		binary.LittleEndian.PutUint32(b[pos+4:pos+8], uint32(p[1]))
		pos += 8
	}
	return b
}
