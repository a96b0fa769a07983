package tile

import (
	"encoding/binary"

	"github.com/azybler/tilestore/pkg/graphid"
)

// Node is a fixed 32-byte record describing one intersection/endpoint
// within the tile.
type Node struct {
	LatOffset       int32 // fixed-point offset from tile base, latitude
	LngOffset       int32 // fixed-point offset from tile base, longitude
	EdgeIndex       uint32
	EdgeCount       uint8 // up to 7 bits
	Access          uint8 // bitmask, AccessAuto etc.
	Type            uint8 // 4 bits
	Density         uint8 // 4 bits
	AdminIndex      uint16
	NameConsistency uint8 // bitmap between local edges
	Timezone        uint8
}

const nodeSize = 32

func (n *Node) Marshal() [nodeSize]byte {
	var b [nodeSize]byte
	binary.LittleEndian.PutUint32(b[0:4], uint32(n.LatOffset))
	binary.LittleEndian.PutUint32(b[4:8], uint32(n.LngOffset))
	binary.LittleEndian.PutUint32(b[8:12], n.EdgeIndex)
	packed := uint32(n.EdgeCount&0x7F) | uint32(n.Access)<<7
	binary.LittleEndian.PutUint32(b[12:16], packed)
	b[16] = (n.Type & 0xF) | (n.Density&0xF)<<4
	binary.LittleEndian.PutUint16(b[17:19], n.AdminIndex)
	b[19] = n.NameConsistency
	b[20] = n.Timezone
	return b
}

func unmarshalNode(b []byte) Node {
	var n Node
	n.LatOffset = int32(binary.LittleEndian.Uint32(b[0:4]))
	n.LngOffset = int32(binary.LittleEndian.Uint32(b[4:8]))
	n.EdgeIndex = binary.LittleEndian.Uint32(b[8:12])
	packed := binary.LittleEndian.Uint32(b[12:16])
	n.EdgeCount = uint8(packed & 0x7F)
	n.Access = uint8(packed >> 7)
	n.Type = b[16] & 0xF
	n.Density = (b[16] >> 4) & 0xF
	n.AdminIndex = binary.LittleEndian.Uint16(b[17:19])
	n.NameConsistency = b[19]
	n.Timezone = b[20]
	return n
}

// DirectedEdge is a fixed 32-byte record describing one directed road segment.
type DirectedEdge struct {
	EndNode              graphid.GraphID
	LengthMeters         uint32 // 24 bits
	SpeedKph             uint8
	Classification       RoadClass // 3 bits
	Use                  Use       // 6 bits
	Surface              Surface   // 3 bits
	CycleLane            CycleLane // 2 bits
	LocalEdgeIndex       uint8 // 7 bits
	OpposingLocalIndex   uint8 // 7 bits
	TurnRestrictionMask  uint8
	ForwardAccess        uint8
	ReverseAccess        uint8
	TransUp              bool
	TransDown            bool
	CountryCrossing      bool
	DestOnly             bool
	NotThru              bool
	DriveOnRight         bool
	WeightedGrade        uint8 // 4 bits
	EdgeInfoOffset       uint32 // 25 bits
}

const directedEdgeSize = 32

func (e *DirectedEdge) Marshal() [directedEdgeSize]byte {
	var b [directedEdgeSize]byte
	binary.LittleEndian.PutUint64(b[0:8], uint64(e.EndNode))

	lengthSpeed := (e.LengthMeters & 0xFFFFFF) | uint32(e.SpeedKph)<<24
	binary.LittleEndian.PutUint32(b[8:12], lengthSpeed)

	classUse := uint32(e.Classification&0x7) |
		uint32(e.Use&0x3F)<<3 |
		uint32(e.Surface&0x7)<<9 |
		uint32(e.CycleLane&0x3)<<12 |
		uint32(e.LocalEdgeIndex&0x7F)<<14 |
		uint32(e.OpposingLocalIndex&0x7F)<<21
	binary.LittleEndian.PutUint32(b[12:16], classUse)

	b[16] = e.TurnRestrictionMask
	b[17] = e.ForwardAccess
	b[18] = e.ReverseAccess

	var flags uint16
	if e.TransUp {
		flags |= 1 << 0
	}
	if e.TransDown {
		flags |= 1 << 1
	}
	if e.CountryCrossing {
		flags |= 1 << 2
	}
	if e.DestOnly {
		flags |= 1 << 3
	}
	if e.NotThru {
		flags |= 1 << 4
	}
	if e.DriveOnRight {
		flags |= 1 << 5
	}
	flags |= uint16(e.WeightedGrade&0xF) << 6
	binary.LittleEndian.PutUint16(b[19:21], flags)

	binary.LittleEndian.PutUint32(b[21:25], e.EdgeInfoOffset&0x1FFFFFF)
	return b
}

func unmarshalDirectedEdge(b []byte) DirectedEdge {
	var e DirectedEdge
	e.EndNode = graphid.GraphID(binary.LittleEndian.Uint64(b[0:8]))

	lengthSpeed := binary.LittleEndian.Uint32(b[8:12])
	e.LengthMeters = lengthSpeed & 0xFFFFFF
	e.SpeedKph = uint8(lengthSpeed >> 24)

	classUse := binary.LittleEndian.Uint32(b[12:16])
	e.Classification = RoadClass(classUse & 0x7)
	e.Use = Use((classUse >> 3) & 0x3F)
	e.Surface = Surface((classUse >> 9) & 0x7)
	e.CycleLane = CycleLane((classUse >> 12) & 0x3)
	e.LocalEdgeIndex = uint8((classUse >> 14) & 0x7F)
	e.OpposingLocalIndex = uint8((classUse >> 21) & 0x7F)

	e.TurnRestrictionMask = b[16]
	e.ForwardAccess = b[17]
	e.ReverseAccess = b[18]

	flags := binary.LittleEndian.Uint16(b[19:21])
	e.TransUp = flags&(1<<0) != 0
	e.TransDown = flags&(1<<1) != 0
	e.CountryCrossing = flags&(1<<2) != 0
	e.DestOnly = flags&(1<<3) != 0
	e.NotThru = flags&(1<<4) != 0
	e.DriveOnRight = flags&(1<<5) != 0
	e.WeightedGrade = uint8((flags >> 6) & 0xF)

	e.EdgeInfoOffset = binary.LittleEndian.Uint32(b[21:25]) & 0x1FFFFFF
	return e
}

// AccessRestriction is an 8-byte record limiting travel on an edge by mode-specific value.
type AccessRestriction struct {
	EdgeIndex uint32 // 21 bits
	Type      AccessType
	Value     uint32
}

const accessRestrictionSize = 8

func (a *AccessRestriction) Marshal() [accessRestrictionSize]byte {
	var b [accessRestrictionSize]byte
	packed := uint64(a.Value) | uint64(a.Type)<<32 | uint64(a.EdgeIndex&0x1FFFFF)<<40
	binary.LittleEndian.PutUint64(b[:], packed)
	return b
}

func unmarshalAccessRestriction(b []byte) AccessRestriction {
	packed := binary.LittleEndian.Uint64(b[:accessRestrictionSize])
	return AccessRestriction{
		Value:     uint32(packed & 0xFFFFFFFF),
		Type:      AccessType((packed >> 32) & 0xFF),
		EdgeIndex: uint32((packed >> 40) & 0x1FFFFF),
	}
}

// Sign is a 12-byte record attaching guide-sign text to an edge.
type Sign struct {
	EdgeIndex  uint32
	Type       uint8
	TextOffset uint32
}

const signSize = 12

func (s *Sign) Marshal() [signSize]byte {
	var b [signSize]byte
	binary.LittleEndian.PutUint32(b[0:4], s.EdgeIndex)
	b[4] = s.Type
	binary.LittleEndian.PutUint32(b[8:12], s.TextOffset)
	return b
}

func unmarshalSign(b []byte) Sign {
	return Sign{
		EdgeIndex:  binary.LittleEndian.Uint32(b[0:4]),
		Type:       b[4],
		TextOffset: binary.LittleEndian.Uint32(b[8:12]),
	}
}

// Admin is a 16-byte record naming the country/state an intersection belongs to.
type Admin struct {
	CountryISO        [2]byte
	StateISO          [2]byte
	CountryTextOffset uint32
	StateTextOffset   uint32
}

const adminSize = 16

func (a *Admin) Marshal() [adminSize]byte {
	var b [adminSize]byte
	b[0], b[1] = a.CountryISO[0], a.CountryISO[1]
	b[2], b[3] = a.StateISO[0], a.StateISO[1]
	binary.LittleEndian.PutUint32(b[4:8], a.CountryTextOffset)
	binary.LittleEndian.PutUint32(b[8:12], a.StateTextOffset)
	return b
}

func unmarshalAdmin(b []byte) Admin {
	var a Admin
	a.CountryISO[0], a.CountryISO[1] = b[0], b[1]
	a.StateISO[0], a.StateISO[1] = b[2], b[3]
	a.CountryTextOffset = binary.LittleEndian.Uint32(b[4:8])
	a.StateTextOffset = binary.LittleEndian.Uint32(b[8:12])
	return a
}

// TransitDeparture is a 32-byte record for one scheduled departure.
// Departures within a tile are sorted by (LineID, DepartureTimeSeconds).
type TransitDeparture struct {
	LineID                uint32
	TripID                uint32
	RouteID               uint32
	BlockID               uint32 // 25 bits
	DayOfWeekMask         uint8  // 7 bits, bit 0 = Sunday
	HeadsignOffset        uint32
	DepartureTimeSeconds  uint32 // 17 bits, seconds from midnight
	ElapsedTimeSeconds    uint32 // 15 bits, seconds to next stop
	DaysBitmap            uint64 // 60-day calendar, bit i = header.DateCreated+i
}

const transitDepartureSize = 32

func (d *TransitDeparture) Marshal() [transitDepartureSize]byte {
	var b [transitDepartureSize]byte
	binary.LittleEndian.PutUint32(b[0:4], d.LineID)
	binary.LittleEndian.PutUint32(b[4:8], d.TripID)
	binary.LittleEndian.PutUint32(b[8:12], d.RouteID)
	blockDow := (d.BlockID & 0x1FFFFFF) | uint32(d.DayOfWeekMask&0x7F)<<25
	binary.LittleEndian.PutUint32(b[12:16], blockDow)
	binary.LittleEndian.PutUint32(b[16:20], d.HeadsignOffset)
	timePacked := (d.DepartureTimeSeconds & 0x1FFFF) | (d.ElapsedTimeSeconds&0x7FFF)<<17
	binary.LittleEndian.PutUint32(b[20:24], timePacked)
	binary.LittleEndian.PutUint64(b[24:32], d.DaysBitmap)
	return b
}

func unmarshalTransitDeparture(b []byte) TransitDeparture {
	var d TransitDeparture
	d.LineID = binary.LittleEndian.Uint32(b[0:4])
	d.TripID = binary.LittleEndian.Uint32(b[4:8])
	d.RouteID = binary.LittleEndian.Uint32(b[8:12])
	blockDow := binary.LittleEndian.Uint32(b[12:16])
	d.BlockID = blockDow & 0x1FFFFFF
	d.DayOfWeekMask = uint8((blockDow >> 25) & 0x7F)
	d.HeadsignOffset = binary.LittleEndian.Uint32(b[16:20])
	timePacked := binary.LittleEndian.Uint32(b[20:24])
	d.DepartureTimeSeconds = timePacked & 0x1FFFF
	d.ElapsedTimeSeconds = (timePacked >> 17) & 0x7FFF
	d.DaysBitmap = binary.LittleEndian.Uint64(b[24:32])
	return d
}

// TransitStop is a 24-byte record describing a stop's identity and text offsets.
type TransitStop struct {
	StopID         uint32
	OneStopOffset  uint32
	NameOffset     uint32
	DescOffset     uint32
	ParentStopID   uint32
	FareZoneID     uint32
}

const transitStopSize = 24

func (s *TransitStop) Marshal() [transitStopSize]byte {
	var b [transitStopSize]byte
	binary.LittleEndian.PutUint32(b[0:4], s.StopID)
	binary.LittleEndian.PutUint32(b[4:8], s.OneStopOffset)
	binary.LittleEndian.PutUint32(b[8:12], s.NameOffset)
	binary.LittleEndian.PutUint32(b[12:16], s.DescOffset)
	binary.LittleEndian.PutUint32(b[16:20], s.ParentStopID)
	binary.LittleEndian.PutUint32(b[20:24], s.FareZoneID)
	return b
}

func unmarshalTransitStop(b []byte) TransitStop {
	return TransitStop{
		StopID:        binary.LittleEndian.Uint32(b[0:4]),
		OneStopOffset: binary.LittleEndian.Uint32(b[4:8]),
		NameOffset:    binary.LittleEndian.Uint32(b[8:12]),
		DescOffset:    binary.LittleEndian.Uint32(b[12:16]),
		ParentStopID:  binary.LittleEndian.Uint32(b[16:20]),
		FareZoneID:    binary.LittleEndian.Uint32(b[20:24]),
	}
}

// TransitRoute is a 32-byte record describing one transit route, sorted by RouteID.
type TransitRoute struct {
	RouteID          uint32
	AgencyIDOffset   uint32
	ShortNameOffset  uint32
	LongNameOffset   uint32
	DescOffset       uint32
	VehicleType      uint32
	Color            uint32
	TextColor        uint32
}

const transitRouteSize = 32

func (r *TransitRoute) Marshal() [transitRouteSize]byte {
	var b [transitRouteSize]byte
	binary.LittleEndian.PutUint32(b[0:4], r.RouteID)
	binary.LittleEndian.PutUint32(b[4:8], r.AgencyIDOffset)
	binary.LittleEndian.PutUint32(b[8:12], r.ShortNameOffset)
	binary.LittleEndian.PutUint32(b[12:16], r.LongNameOffset)
	binary.LittleEndian.PutUint32(b[16:20], r.DescOffset)
	binary.LittleEndian.PutUint32(b[20:24], r.VehicleType)
	binary.LittleEndian.PutUint32(b[24:28], r.Color)
	binary.LittleEndian.PutUint32(b[28:32], r.TextColor)
	return b
}

func unmarshalTransitRoute(b []byte) TransitRoute {
	return TransitRoute{
		RouteID:         binary.LittleEndian.Uint32(b[0:4]),
		AgencyIDOffset:  binary.LittleEndian.Uint32(b[4:8]),
		ShortNameOffset: binary.LittleEndian.Uint32(b[8:12]),
		LongNameOffset:  binary.LittleEndian.Uint32(b[12:16]),
		DescOffset:      binary.LittleEndian.Uint32(b[16:20]),
		VehicleType:     binary.LittleEndian.Uint32(b[20:24]),
		Color:           binary.LittleEndian.Uint32(b[24:28]),
		TextColor:       binary.LittleEndian.Uint32(b[28:32]),
	}
}

// TransitTransfer is a 16-byte record describing a transfer rule between two stops.
type TransitTransfer struct {
	FromStopID        uint32
	ToStopID          uint32
	Type              TransferType
	MinTransferTime   uint32
}

const transitTransferSize = 16

func (t *TransitTransfer) Marshal() [transitTransferSize]byte {
	var b [transitTransferSize]byte
	binary.LittleEndian.PutUint32(b[0:4], t.FromStopID)
	binary.LittleEndian.PutUint32(b[4:8], t.ToStopID)
	binary.LittleEndian.PutUint32(b[8:12], uint32(t.Type))
	binary.LittleEndian.PutUint32(b[12:16], t.MinTransferTime)
	return b
}

func unmarshalTransitTransfer(b []byte) TransitTransfer {
	return TransitTransfer{
		FromStopID:      binary.LittleEndian.Uint32(b[0:4]),
		ToStopID:        binary.LittleEndian.Uint32(b[4:8]),
		Type:            TransferType(binary.LittleEndian.Uint32(b[8:12])),
		MinTransferTime: binary.LittleEndian.Uint32(b[12:16]),
	}
}
