package tile

import "testing"

func TestBuilderRoundTripsSixFixedSections(t *testing.T) {
	id := mustGraphID(t, 2, 42, 0)
	endNode := mustGraphID(t, 2, 42, 1)
	b := NewBuilder(id, 200, 1)

	b.AddNode(Node{LatOffset: 10, LngOffset: -20, EdgeIndex: 1, EdgeCount: 2, Access: AccessAuto | AccessBicycle})
	b.AddDirectedEdge(DirectedEdge{
		EndNode:        endNode,
		LengthMeters:   1500,
		SpeedKph:       50,
		Classification: RoadClassPrimary,
		Use:            UseRoad,
		Surface:        SurfacePaved,
		CycleLane:      CycleLaneShared,
		DestOnly:       true,
		WeightedGrade:  3,
	})
	b.AddAdmin(Admin{CountryISO: [2]byte{'U', 'S'}, StateISO: [2]byte{'C', 'A'}})
	b.AddRoute(TransitRoute{RouteID: 1})
	b.AddStop(TransitStop{StopID: 7})
	b.AddTransfer(TransitTransfer{FromStopID: 7, ToStopID: 8, Type: TransferTypeTimed})

	data, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	tile, err := OpenBytes("mem://full", data)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	if tile.Header().Version != FormatVersion {
		t.Errorf("Version = %d, want %d", tile.Header().Version, FormatVersion)
	}
	if tile.Header().FileSize != uint64(len(data)) {
		t.Errorf("FileSize = %d, want %d", tile.Header().FileSize, len(data))
	}

	n, err := tile.Node(0)
	if err != nil {
		t.Fatalf("Node(0): %v", err)
	}
	if n.LatOffset != 10 || n.LngOffset != -20 || n.Access != AccessAuto|AccessBicycle {
		t.Errorf("Node(0) = %+v", n)
	}

	e, err := tile.DirectedEdge(0)
	if err != nil {
		t.Fatalf("DirectedEdge(0): %v", err)
	}
	if e.EndNode != endNode || e.LengthMeters != 1500 || e.SpeedKph != 50 {
		t.Errorf("DirectedEdge(0) = %+v", e)
	}
	if e.Classification != RoadClassPrimary || e.Use != UseRoad || e.Surface != SurfacePaved || e.CycleLane != CycleLaneShared {
		t.Errorf("DirectedEdge(0) packed fields = %+v", e)
	}
	if !e.DestOnly || e.WeightedGrade != 3 {
		t.Errorf("DirectedEdge(0) flags = %+v", e)
	}

	admin, err := tile.Admin(0)
	if err != nil {
		t.Fatalf("Admin(0): %v", err)
	}
	if admin.CountryISO != [2]byte{'U', 'S'} {
		t.Errorf("Admin(0).CountryISO = %s, want US", admin.CountryISO)
	}

	route, ok := tile.GetTransitRoute(1)
	if !ok {
		t.Fatalf("GetTransitRoute(1) not found")
	}
	if route.RouteID != 1 {
		t.Errorf("route = %+v", route)
	}

	stop, err := tile.TransitStop(0)
	if err != nil {
		t.Fatalf("TransitStop(0): %v", err)
	}
	if stop.StopID != 7 {
		t.Errorf("stop = %+v", stop)
	}

	transfer, ok := tile.GetTransfer(7, 8)
	if !ok {
		t.Fatalf("GetTransfer(7,8) not found")
	}
	if transfer.Type != TransferTypeTimed {
		t.Errorf("transfer = %+v", transfer)
	}

	if _, ok := tile.GetTransfer(7, 99); ok {
		t.Fatalf("GetTransfer(7,99) unexpectedly found a transfer")
	}
}

func TestBuilderAddTextInterns(t *testing.T) {
	id := mustGraphID(t, 0, 9, 0)
	b := NewBuilder(id, 0, 1)
	a := b.AddText("Main Street")
	c := b.AddText("Main Street")
	if a != c {
		t.Errorf("AddText did not intern repeated string: %d != %d", a, c)
	}
}

func TestTextListBeginsWithEmptyStringAtOffsetZero(t *testing.T) {
	id := mustGraphID(t, 0, 11, 0)
	b := NewBuilder(id, 0, 1)
	data, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	tile, err := OpenBytes("mem://emptytext", data)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	name, err := tile.GetName(0)
	if err != nil {
		t.Fatalf("GetName(0): %v", err)
	}
	if name != "" {
		t.Errorf("GetName(0) = %q, want empty string", name)
	}
}

func TestBuilderEmptyCellGridProducesNoEdgeCells(t *testing.T) {
	id := mustGraphID(t, 0, 10, 0)
	b := NewBuilder(id, 0, 3)
	data, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	tile, err := OpenBytes("mem://gridonly", data)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	got, err := tile.GetCell(0, 0)
	if err != nil {
		t.Fatalf("GetCell(0,0): %v", err)
	}
	if len(got) != 0 {
		t.Errorf("GetCell(0,0) = %v, want empty", got)
	}
}

