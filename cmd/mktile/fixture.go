package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/azybler/tilestore/pkg/graphid"
	"github.com/azybler/tilestore/pkg/tile"
)

// Fixture is the YAML/JSON shape mktile reads: a human-writable description
// of one tile's contents, converted to a pkg/tile.Builder and assembled into
// a real tile file. It exists for test fixtures and tooling, not as a
// general graph-building pipeline (that is out of scope).
type Fixture struct {
	Level             uint32 `yaml:"level"`
	TileIndex         uint32 `yaml:"tile_index"`
	DateCreated       uint32 `yaml:"date_created"`
	CellGridDimension uint8  `yaml:"cell_grid_dimension"`

	Nodes              []NodeFixture              `yaml:"nodes"`
	DirectedEdges      []DirectedEdgeFixture      `yaml:"directed_edges"`
	Signs              []SignFixture              `yaml:"signs"`
	Admins             []AdminFixture             `yaml:"admins"`
	AccessRestrictions []AccessRestrictionFixture `yaml:"access_restrictions"`
	TransitStops       []tile.TransitStop         `yaml:"transit_stops"`
	TransitRoutes      []tile.TransitRoute        `yaml:"transit_routes"`
	TransitTransfers   []tile.TransitTransfer     `yaml:"transit_transfers"`
	TransitDepartures  []tile.TransitDeparture    `yaml:"transit_departures"`
	Cells              []CellFixture              `yaml:"cells"`
}

type NodeFixture struct {
	LatOffset       int32  `yaml:"lat_offset"`
	LngOffset       int32  `yaml:"lng_offset"`
	EdgeIndex       uint32 `yaml:"edge_index"`
	EdgeCount       uint8  `yaml:"edge_count"`
	Access          uint8  `yaml:"access"`
	Type            uint8  `yaml:"type"`
	Density         uint8  `yaml:"density"`
	AdminIndex      uint16 `yaml:"admin_index"`
	NameConsistency uint8  `yaml:"name_consistency"`
	Timezone        uint8  `yaml:"timezone"`
}

type DirectedEdgeFixture struct {
	EndNode struct {
		Level     uint32 `yaml:"level"`
		TileIndex uint32 `yaml:"tile_index"`
		Index     uint32 `yaml:"index"`
	} `yaml:"end_node"`
	LengthMeters        uint32 `yaml:"length_meters"`
	SpeedKph            uint8  `yaml:"speed_kph"`
	Classification      uint8  `yaml:"classification"`
	Use                 uint8  `yaml:"use"`
	Surface             uint8  `yaml:"surface"`
	CycleLane           uint8  `yaml:"cycle_lane"`
	LocalEdgeIndex      uint8  `yaml:"local_edge_index"`
	OpposingLocalIndex  uint8  `yaml:"opposing_local_index"`
	TurnRestrictionMask uint8  `yaml:"turn_restriction_mask"`
	ForwardAccess       uint8  `yaml:"forward_access"`
	ReverseAccess       uint8  `yaml:"reverse_access"`
	TransUp             bool   `yaml:"trans_up"`
	TransDown           bool   `yaml:"trans_down"`
	CountryCrossing     bool   `yaml:"country_crossing"`
	DestOnly            bool   `yaml:"dest_only"`
	NotThru             bool   `yaml:"not_thru"`
	DriveOnRight        bool   `yaml:"drive_on_right"`
	WeightedGrade       uint8  `yaml:"weighted_grade"`

	Names []string    `yaml:"names"`
	Shape [][2]int32  `yaml:"shape"`
}

type SignFixture struct {
	EdgeIndex uint32 `yaml:"edge_index"`
	Type      uint8  `yaml:"type"`
	Text      string `yaml:"text"`
}

type AdminFixture struct {
	CountryISO  string `yaml:"country_iso"`
	StateISO    string `yaml:"state_iso"`
	CountryText string `yaml:"country_text"`
	StateText   string `yaml:"state_text"`
}

type AccessRestrictionFixture struct {
	EdgeIndex uint32 `yaml:"edge_index"`
	Type      uint8  `yaml:"type"`
	Value     uint32 `yaml:"value"`
}

type CellFixture struct {
	Column int   `yaml:"column"`
	Row    int   `yaml:"row"`
	Edges  []int `yaml:"edges"` // directed edge indices occupying this sub-cell
}

// graphIDFromFixture returns the tile-base id a fixture describes.
func graphIDFromFixture(fx Fixture) (graphid.GraphID, error) {
	return graphid.New(fx.Level, fx.TileIndex, 0)
}

// LoadFixture reads and parses a fixture document from path.
func LoadFixture(path string) (Fixture, error) {
	var fx Fixture
	data, err := os.ReadFile(path)
	if err != nil {
		return fx, fmt.Errorf("mktile: reading fixture: %w", err)
	}
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return fx, fmt.Errorf("mktile: parsing fixture: %w", err)
	}
	return fx, nil
}

// Build converts a Fixture into a complete tile file's bytes.
func (fx Fixture) Build() ([]byte, error) {
	id, err := graphid.New(fx.Level, fx.TileIndex, 0)
	if err != nil {
		return nil, fmt.Errorf("mktile: building tile id: %w", err)
	}

	dim := fx.CellGridDimension
	if dim == 0 {
		dim = 1
	}
	b := tile.NewBuilder(id, fx.DateCreated, dim)

	for _, n := range fx.Nodes {
		b.AddNode(tile.Node{
			LatOffset:       n.LatOffset,
			LngOffset:       n.LngOffset,
			EdgeIndex:       n.EdgeIndex,
			EdgeCount:       n.EdgeCount,
			Access:          n.Access,
			Type:            n.Type,
			Density:         n.Density,
			AdminIndex:      n.AdminIndex,
			NameConsistency: n.NameConsistency,
			Timezone:        n.Timezone,
		})
	}

	for _, e := range fx.DirectedEdges {
		endNode, err := graphid.New(e.EndNode.Level, e.EndNode.TileIndex, e.EndNode.Index)
		if err != nil {
			return nil, fmt.Errorf("mktile: directed edge end_node: %w", err)
		}

		var edgeInfoOffset uint32
		if len(e.Names) > 0 || len(e.Shape) > 0 {
			names := make([]uint32, len(e.Names))
			for i, n := range e.Names {
				names[i] = b.AddText(n)
			}
			edgeInfoOffset = b.AddEdgeInfo(tile.EdgeInfo{NameOffsets: names, Shape: e.Shape})
		}

		b.AddDirectedEdge(tile.DirectedEdge{
			EndNode:             endNode,
			LengthMeters:        e.LengthMeters,
			SpeedKph:            e.SpeedKph,
			Classification:      tile.RoadClass(e.Classification),
			Use:                 tile.Use(e.Use),
			Surface:             tile.Surface(e.Surface),
			CycleLane:           tile.CycleLane(e.CycleLane),
			LocalEdgeIndex:      e.LocalEdgeIndex,
			OpposingLocalIndex:  e.OpposingLocalIndex,
			TurnRestrictionMask: e.TurnRestrictionMask,
			ForwardAccess:       e.ForwardAccess,
			ReverseAccess:       e.ReverseAccess,
			TransUp:             e.TransUp,
			TransDown:           e.TransDown,
			CountryCrossing:     e.CountryCrossing,
			DestOnly:            e.DestOnly,
			NotThru:             e.NotThru,
			DriveOnRight:        e.DriveOnRight,
			WeightedGrade:       e.WeightedGrade,
			EdgeInfoOffset:      edgeInfoOffset,
		})
	}

	for _, s := range fx.Signs {
		b.AddSign(tile.Sign{EdgeIndex: s.EdgeIndex, Type: s.Type, TextOffset: b.AddText(s.Text)})
	}

	for _, a := range fx.Admins {
		var admin tile.Admin
		copy(admin.CountryISO[:], a.CountryISO)
		copy(admin.StateISO[:], a.StateISO)
		admin.CountryTextOffset = b.AddText(a.CountryText)
		admin.StateTextOffset = b.AddText(a.StateText)
		b.AddAdmin(admin)
	}

	for _, a := range fx.AccessRestrictions {
		b.AddAccessRestriction(tile.AccessRestriction{
			EdgeIndex: a.EdgeIndex,
			Type:      tile.AccessType(a.Type),
			Value:     a.Value,
		})
	}

	for _, s := range fx.TransitStops {
		b.AddStop(s)
	}
	for _, route := range fx.TransitRoutes {
		b.AddRoute(route)
	}
	for _, tr := range fx.TransitTransfers {
		b.AddTransfer(tr)
	}
	for _, d := range fx.TransitDepartures {
		b.AddDeparture(d)
	}

	for _, c := range fx.Cells {
		ids := make([]graphid.GraphID, len(c.Edges))
		for i, idx := range c.Edges {
			ids[i] = graphid.MustNew(fx.Level, fx.TileIndex, uint32(idx))
		}
		b.SetCell(c.Column, c.Row, ids)
	}

	return b.Build()
}
