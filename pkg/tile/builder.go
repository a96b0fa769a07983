package tile

import (
	"encoding/binary"

	"github.com/azybler/tilestore/pkg/graphid"
)

// Builder assembles a tile file byte-for-byte, including its integrity
// trailer. It exists for tests and tooling (cmd/mktile) that need to
// synthesize valid tiles without writing a second binary reader.
type Builder struct {
	graphID           graphid.GraphID
	dateCreated       uint32
	cellGridDimension uint8

	nodes               []Node
	directedEdges       []DirectedEdge
	departures          []TransitDeparture
	stops               []TransitStop
	routes              []TransitRoute
	transfers           []TransitTransfer
	accessRestrictions  []AccessRestriction
	signs               []Sign
	admins              []Admin

	cells [][]graphid.GraphID // row-major, len == cellGridDimension^2

	edgeInfoBuf []byte
	textBuf     []byte
	textOffsets map[string]uint32
}

// NewBuilder starts a tile builder for the given tile id, creation date
// (days since PivotDateUnixDays), and N-by-N edge-cell grid dimension.
func NewBuilder(id graphid.GraphID, dateCreated uint32, cellGridDimension uint8) *Builder {
	n := int(cellGridDimension) * int(cellGridDimension)
	b := &Builder{
		graphID:           id,
		dateCreated:       dateCreated,
		cellGridDimension: cellGridDimension,
		cells:             make([][]graphid.GraphID, n),
		textOffsets:       make(map[string]uint32),
	}
	// The text list always begins with one empty string at offset 0, per §6.
	b.textBuf = append(b.textBuf, 0)
	b.textOffsets[""] = 0
	return b
}

func (b *Builder) AddNode(n Node) uint32 {
	b.nodes = append(b.nodes, n)
	return uint32(len(b.nodes) - 1)
}

func (b *Builder) AddDirectedEdge(e DirectedEdge) uint32 {
	b.directedEdges = append(b.directedEdges, e)
	return uint32(len(b.directedEdges) - 1)
}

func (b *Builder) AddDeparture(d TransitDeparture) { b.departures = append(b.departures, d) }
func (b *Builder) AddStop(s TransitStop)           { b.stops = append(b.stops, s) }
func (b *Builder) AddRoute(r TransitRoute)         { b.routes = append(b.routes, r) }
func (b *Builder) AddTransfer(t TransitTransfer)   { b.transfers = append(b.transfers, t) }
func (b *Builder) AddAccessRestriction(a AccessRestriction) {
	b.accessRestrictions = append(b.accessRestrictions, a)
}
func (b *Builder) AddSign(s Sign) { b.signs = append(b.signs, s) }
func (b *Builder) AddAdmin(a Admin) uint32 {
	b.admins = append(b.admins, a)
	return uint32(len(b.admins) - 1)
}

// SetCell stores the edge ids occupying the sub-cell at (column, row).
func (b *Builder) SetCell(column, row int, ids []graphid.GraphID) {
	n := int(b.cellGridDimension)
	b.cells[row*n+column] = ids
}

// AddText interns s into the text list, returning its byte offset. Repeated
// calls with the same string return the same offset.
func (b *Builder) AddText(s string) uint32 {
	if off, ok := b.textOffsets[s]; ok {
		return off
	}
	off := uint32(len(b.textBuf))
	b.textBuf = append(b.textBuf, []byte(s)...)
	b.textBuf = append(b.textBuf, 0)
	b.textOffsets[s] = off
	return off
}

// AddEdgeInfo appends an EdgeInfo record to the edge-info region, returning
// the offset to store on a DirectedEdge.EdgeInfoOffset.
func (b *Builder) AddEdgeInfo(info EdgeInfo) uint32 {
	off := uint32(len(b.edgeInfoBuf))
	b.edgeInfoBuf = append(b.edgeInfoBuf, marshalEdgeInfo(info)...)
	return off
}

// Build assembles the complete tile file, sections in fixed order followed
// by the edge-info region, the text list, and the BLAKE3 integrity trailer.
func (b *Builder) Build() ([]byte, error) {
	cellOffsets := make([]CellOffset, len(b.cells))
	var flatCells []graphid.GraphID
	for i, ids := range b.cells {
		begin := uint32(len(flatCells))
		flatCells = append(flatCells, ids...)
		cellOffsets[i] = CellOffset{Begin: begin, End: uint32(len(flatCells))}
	}

	header := &Header{
		GraphID:                b.graphID,
		NodeCount:              uint32(len(b.nodes)),
		DirectedEdgeCount:      uint32(len(b.directedEdges)),
		SignCount:              uint32(len(b.signs)),
		AdminCount:             uint32(len(b.admins)),
		DepartureCount:         uint32(len(b.departures)),
		StopCount:              uint32(len(b.stops)),
		RouteCount:             uint32(len(b.routes)),
		TransferCount:          uint32(len(b.transfers)),
		AccessRestrictionCount: uint32(len(b.accessRestrictions)),
		DateCreated:            b.dateCreated,
		Version:                FormatVersion,
		CellGridDimension:      b.cellGridDimension,
		CellOffsets:            cellOffsets,
	}

	headerBytes, err := header.Marshal()
	if err != nil {
		return nil, err
	}

	var body []byte
	body = append(body, headerBytes...)

	for i := range b.nodes {
		rec := b.nodes[i].Marshal()
		body = append(body, rec[:]...)
	}
	for i := range b.directedEdges {
		rec := b.directedEdges[i].Marshal()
		body = append(body, rec[:]...)
	}
	for i := range b.departures {
		rec := b.departures[i].Marshal()
		body = append(body, rec[:]...)
	}
	for i := range b.stops {
		rec := b.stops[i].Marshal()
		body = append(body, rec[:]...)
	}
	for i := range b.routes {
		rec := b.routes[i].Marshal()
		body = append(body, rec[:]...)
	}
	for i := range b.transfers {
		rec := b.transfers[i].Marshal()
		body = append(body, rec[:]...)
	}
	for i := range b.accessRestrictions {
		rec := b.accessRestrictions[i].Marshal()
		body = append(body, rec[:]...)
	}
	for i := range b.signs {
		rec := b.signs[i].Marshal()
		body = append(body, rec[:]...)
	}
	for i := range b.admins {
		rec := b.admins[i].Marshal()
		body = append(body, rec[:]...)
	}

	for _, id := range flatCells {
		var idBytes [8]byte
		binary.LittleEndian.PutUint64(idBytes[:], uint64(id))
		body = append(body, idBytes[:]...)
	}

	edgeInfoOffset := uint64(len(body))
	body = append(body, b.edgeInfoBuf...)
	textListOffset := uint64(len(body))
	body = append(body, b.textBuf...)

	header.EdgeInfoOffset = edgeInfoOffset
	header.TextListOffset = textListOffset
	header.FileSize = uint64(len(body)) + trailerSize

	headerBytes, err = header.Marshal()
	if err != nil {
		return nil, err
	}
	copy(body[:len(headerBytes)], headerBytes)

	return appendTrailer(body), nil
}
