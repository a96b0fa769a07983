package tile

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/azybler/tilestore/pkg/graphid"
)

// CellOffset is the half-open [Begin, End) range into the edge-cell array
// belonging to one spatial sub-cell.
type CellOffset struct {
	Begin uint32
	End   uint32
}

const cellOffsetSize = 8

// fixedHeader is the portion of the header with no variable-length tail; it
// is written and read with encoding/binary since every field is plain and
// byte-aligned (no sub-byte bitfields live in the header).
type fixedHeader struct {
	GraphID                uint64
	NodeCount              uint32
	DirectedEdgeCount      uint32
	SignCount              uint32
	AdminCount             uint32
	DepartureCount         uint32
	StopCount              uint32
	RouteCount             uint32
	TransferCount          uint32
	AccessRestrictionCount uint32
	EdgeInfoOffset         uint64
	TextListOffset         uint64
	FileSize               uint64
	DateCreated            uint32
	Version                uint32
	CellGridDimension      uint8
}

const fixedHeaderSize = 8 + 9*4 + 8 + 8 + 8 + 4 + 4 + 1 // 77 bytes

// Header is the first record of a tile: section counts, byte offsets, and
// the edge-cell grid's per-cell offset table.
type Header struct {
	GraphID                graphid.GraphID
	NodeCount              uint32
	DirectedEdgeCount      uint32
	SignCount              uint32
	AdminCount              uint32
	DepartureCount         uint32
	StopCount              uint32
	RouteCount             uint32
	TransferCount          uint32
	AccessRestrictionCount uint32
	EdgeInfoOffset         uint64
	TextListOffset         uint64
	FileSize               uint64
	DateCreated            uint32
	Version                uint32
	CellGridDimension      uint8
	CellOffsets            []CellOffset // CellGridDimension x CellGridDimension, row-major
}

// Size returns the total byte size of the header including its variable cell table.
func (h *Header) Size() int {
	return fixedHeaderSize + int(h.CellGridDimension)*int(h.CellGridDimension)*cellOffsetSize
}

// Marshal encodes the header to its on-disk byte representation.
func (h *Header) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	fh := fixedHeader{
		GraphID:                uint64(h.GraphID),
		NodeCount:              h.NodeCount,
		DirectedEdgeCount:      h.DirectedEdgeCount,
		SignCount:              h.SignCount,
		AdminCount:             h.AdminCount,
		DepartureCount:         h.DepartureCount,
		StopCount:              h.StopCount,
		RouteCount:             h.RouteCount,
		TransferCount:          h.TransferCount,
		AccessRestrictionCount: h.AccessRestrictionCount,
		EdgeInfoOffset:         h.EdgeInfoOffset,
		TextListOffset:         h.TextListOffset,
		FileSize:               h.FileSize,
		DateCreated:            h.DateCreated,
		Version:                h.Version,
		CellGridDimension:      h.CellGridDimension,
	}
	if err := binary.Write(buf, binary.LittleEndian, &fh); err != nil {
		return nil, fmt.Errorf("tile: marshaling header: %w", err)
	}
	wantCells := int(h.CellGridDimension) * int(h.CellGridDimension)
	if len(h.CellOffsets) != wantCells {
		return nil, fmt.Errorf("tile: header has %d cell offsets, want %d", len(h.CellOffsets), wantCells)
	}
	for _, c := range h.CellOffsets {
		if err := binary.Write(buf, binary.LittleEndian, &c); err != nil {
			return nil, fmt.Errorf("tile: marshaling cell offset: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalHeader decodes a Header from the start of data. It returns the
// number of bytes consumed.
func UnmarshalHeader(data []byte) (*Header, int, error) {
	if len(data) < fixedHeaderSize {
		return nil, 0, fmt.Errorf("tile: header truncated: have %d bytes, need at least %d", len(data), fixedHeaderSize)
	}
	var fh fixedHeader
	if err := binary.Read(bytes.NewReader(data[:fixedHeaderSize]), binary.LittleEndian, &fh); err != nil {
		return nil, 0, fmt.Errorf("tile: unmarshaling header: %w", err)
	}

	h := &Header{
		GraphID:                graphid.GraphID(fh.GraphID),
		NodeCount:              fh.NodeCount,
		DirectedEdgeCount:      fh.DirectedEdgeCount,
		SignCount:              fh.SignCount,
		AdminCount:             fh.AdminCount,
		DepartureCount:         fh.DepartureCount,
		StopCount:              fh.StopCount,
		RouteCount:             fh.RouteCount,
		TransferCount:          fh.TransferCount,
		AccessRestrictionCount: fh.AccessRestrictionCount,
		EdgeInfoOffset:         fh.EdgeInfoOffset,
		TextListOffset:         fh.TextListOffset,
		FileSize:               fh.FileSize,
		DateCreated:            fh.DateCreated,
		Version:                fh.Version,
		CellGridDimension:      fh.CellGridDimension,
	}

	nCells := int(h.CellGridDimension) * int(h.CellGridDimension)
	cellBytes := nCells * cellOffsetSize
	if len(data) < fixedHeaderSize+cellBytes {
		return nil, 0, fmt.Errorf("tile: header cell table truncated: have %d bytes after fixed header, need %d", len(data)-fixedHeaderSize, cellBytes)
	}
	h.CellOffsets = make([]CellOffset, nCells)
	r := bytes.NewReader(data[fixedHeaderSize : fixedHeaderSize+cellBytes])
	for i := range h.CellOffsets {
		if err := binary.Read(r, binary.LittleEndian, &h.CellOffsets[i]); err != nil {
			return nil, 0, fmt.Errorf("tile: unmarshaling cell offset %d: %w", i, err)
		}
	}
	return h, fixedHeaderSize + cellBytes, nil
}
