package main

import (
	"testing"

	"github.com/azybler/tilestore/pkg/tile"
)

func TestFixtureBuildRoundTrips(t *testing.T) {
	fx := Fixture{
		Level:             0,
		TileIndex:         7,
		DateCreated:       100,
		CellGridDimension: 1,
		Nodes: []NodeFixture{
			{LatOffset: 1, LngOffset: 2, EdgeIndex: 0, EdgeCount: 1},
		},
		DirectedEdges: []DirectedEdgeFixture{
			{
				EndNode: struct {
					Level     uint32 `yaml:"level"`
					TileIndex uint32 `yaml:"tile_index"`
					Index     uint32 `yaml:"index"`
				}{Level: 0, TileIndex: 7, Index: 1},
				LengthMeters: 250,
				SpeedKph:     40,
				Names:        []string{"Baker Street"},
				Shape:        [][2]int32{{0, 0}, {10, 10}},
			},
		},
		Signs: []SignFixture{
			{EdgeIndex: 0, Type: 1, Text: "Stop"},
		},
		Cells: []CellFixture{
			{Column: 0, Row: 0, Edges: []int{0}},
		},
	}

	data, err := fx.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	tl, err := tile.OpenBytes("mem://fixture", data)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	n, err := tl.Node(0)
	if err != nil {
		t.Fatalf("Node(0): %v", err)
	}
	if n.LatOffset != 1 || n.LngOffset != 2 {
		t.Errorf("Node(0) = %+v", n)
	}

	e, err := tl.DirectedEdge(0)
	if err != nil {
		t.Fatalf("DirectedEdge(0): %v", err)
	}
	if e.LengthMeters != 250 || e.SpeedKph != 40 {
		t.Errorf("DirectedEdge(0) = %+v", e)
	}

	info, err := tl.EdgeInfo(e)
	if err != nil {
		t.Fatalf("EdgeInfo: %v", err)
	}
	name, err := tl.GetName(info.NameOffsets[0])
	if err != nil {
		t.Fatalf("GetName: %v", err)
	}
	if name != "Baker Street" {
		t.Errorf("GetName = %q, want %q", name, "Baker Street")
	}

	signs, err := tl.GetSigns(0)
	if err != nil {
		t.Fatalf("GetSigns: %v", err)
	}
	if len(signs) != 1 || signs[0].Text != "Stop" {
		t.Errorf("GetSigns(0) = %v", signs)
	}

	cell, err := tl.GetCell(0, 0)
	if err != nil {
		t.Fatalf("GetCell(0,0): %v", err)
	}
	if len(cell) != 1 {
		t.Errorf("GetCell(0,0) = %v, want 1 entry", cell)
	}
}
