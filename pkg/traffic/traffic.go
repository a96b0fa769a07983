// Package traffic implements the read-side accessor for the live traffic
// overlay tile: per-edge speeds and the active incident buffer. The write
// side (ingesting live feeds, flipping the active buffer) is out of scope;
// this package only has to read a buffer some other process updates
// concurrently, without ever observing a torn read.
package traffic

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
)

const (
	headerSize    = 24
	speedSize     = 2
	incidentSize  = 8
	activeBufferBit = uint64(1) << 63
	lastUpdateMask  = activeBufferBit - 1
)

// Speed is a per-edge traffic sample, unpacked from its 16-bit wire form.
type Speed struct {
	SpeedKmh         uint8 // 7 bits
	CongestionLevel  uint8 // 3 bits
	IsScale          bool
	Age              uint8 // 4 bits
	HasIncident      bool
}

func unmarshalSpeed(raw uint16) Speed {
	return Speed{
		SpeedKmh:        uint8(raw & 0x7F),
		CongestionLevel: uint8((raw >> 7) & 0x7),
		IsScale:         (raw>>10)&0x1 != 0,
		Age:             uint8((raw >> 11) & 0xF),
		HasIncident:     (raw>>15)&0x1 != 0,
	}
}

func marshalSpeed(s Speed) uint16 {
	var raw uint16
	raw |= uint16(s.SpeedKmh & 0x7F)
	raw |= uint16(s.CongestionLevel&0x7) << 7
	if s.IsScale {
		raw |= 1 << 10
	}
	raw |= uint16(s.Age&0xF) << 11
	if s.HasIncident {
		raw |= 1 << 15
	}
	return raw
}

// Incident is one entry in an incident array. The wire format fixes only
// the per-array count; this package's own 8-byte record carries the two
// facts a reader acts on (which edge, what kind).
type Incident struct {
	EdgeIndex uint32
	Type      uint32
}

func unmarshalIncident(b []byte) Incident {
	return Incident{
		EdgeIndex: binary.LittleEndian.Uint32(b[0:4]),
		Type:      binary.LittleEndian.Uint32(b[4:8]),
	}
}

func marshalIncident(i Incident) [incidentSize]byte {
	var b [incidentSize]byte
	binary.LittleEndian.PutUint32(b[0:4], i.EdgeIndex)
	binary.LittleEndian.PutUint32(b[4:8], i.Type)
	return b
}

// Tile is the read-side accessor for one traffic overlay tile. A nil *Tile
// is the "overlay absent" state per §6: Speed and Incidents on a nil
// receiver return their empty zero values rather than panicking.
type Tile struct {
	tileID             uint64
	directedEdgeCount  uint32
	incidentBufferSize uint32

	// packed holds active_incident_buffer (bit 63) and
	// last_update_seconds_since_epoch (bits 0-62). Accessed only through
	// sync/atomic so a concurrent writer flipping the active buffer never
	// produces a torn read: every query reads this word exactly once.
	packed uint64

	speeds []byte // directedEdgeCount * 2 bytes, little-endian uint16 per edge

	incidentsA []Incident
	incidentsB []Incident
}

// Open parses a traffic tile from raw bytes: the 24-byte header, the speed
// array, then the two incident arrays each prefixed by a uint32 count.
func Open(raw []byte) (*Tile, error) {
	if len(raw) < headerSize {
		return nil, fmt.Errorf("traffic: tile truncated: have %d bytes, need at least %d", len(raw), headerSize)
	}

	t := &Tile{
		tileID:             binary.LittleEndian.Uint64(raw[0:8]),
		directedEdgeCount:  binary.LittleEndian.Uint32(raw[8:12]),
		incidentBufferSize: binary.LittleEndian.Uint32(raw[12:16]),
		packed:             binary.LittleEndian.Uint64(raw[16:24]),
	}

	pos := headerSize
	speedBytes := int(t.directedEdgeCount) * speedSize
	if pos+speedBytes > len(raw) {
		return nil, fmt.Errorf("traffic: speed array runs past end of tile")
	}
	t.speeds = raw[pos : pos+speedBytes]
	pos += speedBytes

	var err error
	t.incidentsA, pos, err = readIncidentArray(raw, pos)
	if err != nil {
		return nil, err
	}
	t.incidentsB, pos, err = readIncidentArray(raw, pos)
	if err != nil {
		return nil, err
	}
	_ = pos

	return t, nil
}

func readIncidentArray(raw []byte, pos int) ([]Incident, int, error) {
	if pos+4 > len(raw) {
		return nil, 0, fmt.Errorf("traffic: incident array count runs past end of tile")
	}
	count := binary.LittleEndian.Uint32(raw[pos : pos+4])
	pos += 4
	need := int(count) * incidentSize
	if pos+need > len(raw) {
		return nil, 0, fmt.Errorf("traffic: incident array runs past end of tile")
	}
	incidents := make([]Incident, count)
	for i := range incidents {
		incidents[i] = unmarshalIncident(raw[pos : pos+incidentSize])
		pos += incidentSize
	}
	return incidents, pos, nil
}

// TileID returns the id of the graph tile this overlay corresponds to.
func (t *Tile) TileID() uint64 {
	if t == nil {
		return 0
	}
	return t.tileID
}

// LastUpdate returns the last-update timestamp, seconds since epoch.
func (t *Tile) LastUpdate() uint64 {
	if t == nil {
		return 0
	}
	return atomic.LoadUint64(&t.packed) & lastUpdateMask
}

// ActiveBuffer returns which of the two incident arrays is currently live:
// 0 for the first, 1 for the second. It is read atomically once per call.
func (t *Tile) ActiveBuffer() uint8 {
	if t == nil {
		return 0
	}
	if atomic.LoadUint64(&t.packed)&activeBufferBit != 0 {
		return 1
	}
	return 0
}

// Speed returns the traffic sample for directed edge i. A nil Tile or an
// out-of-range edge index returns the zero Speed and ok=false, never a panic.
func (t *Tile) Speed(edgeIndex int) (Speed, bool) {
	if t == nil || edgeIndex < 0 || edgeIndex >= int(t.directedEdgeCount) {
		return Speed{}, false
	}
	raw := binary.LittleEndian.Uint16(t.speeds[edgeIndex*speedSize : edgeIndex*speedSize+speedSize])
	return unmarshalSpeed(raw), true
}

// Incidents returns the currently active incident array. The active buffer
// bit is read exactly once here; the returned slice is then indexed freely
// without consulting the bit again, so a writer that flips the bit mid-call
// cannot produce a mismatched read.
func (t *Tile) Incidents() []Incident {
	if t == nil {
		return nil
	}
	if atomic.LoadUint64(&t.packed)&activeBufferBit != 0 {
		return t.incidentsB
	}
	return t.incidentsA
}
