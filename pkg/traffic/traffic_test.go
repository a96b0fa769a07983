package traffic

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"testing"
)

// buildRaw assembles a traffic tile's bytes directly, mirroring the layout
// Open parses: header, speed array, two incident arrays each prefixed by a count.
func buildRaw(tileID uint64, activeBuffer uint8, lastUpdate uint64, speeds []Speed, incidentsA, incidentsB []Incident) []byte {
	packed := lastUpdate & lastUpdateMask
	if activeBuffer != 0 {
		packed |= activeBufferBit
	}

	var buf []byte
	var header [headerSize]byte
	binary.LittleEndian.PutUint64(header[0:8], tileID)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(speeds)))
	binary.LittleEndian.PutUint32(header[12:16], 0)
	binary.LittleEndian.PutUint64(header[16:24], packed)
	buf = append(buf, header[:]...)

	for _, s := range speeds {
		var sb [2]byte
		binary.LittleEndian.PutUint16(sb[:], marshalSpeed(s))
		buf = append(buf, sb[:]...)
	}

	appendArray := func(incidents []Incident) {
		var countBuf [4]byte
		binary.LittleEndian.PutUint32(countBuf[:], uint32(len(incidents)))
		buf = append(buf, countBuf[:]...)
		for _, inc := range incidents {
			rec := marshalIncident(inc)
			buf = append(buf, rec[:]...)
		}
	}
	appendArray(incidentsA)
	appendArray(incidentsB)

	return buf
}

func TestOpenAndSpeedRoundTrip(t *testing.T) {
	speeds := []Speed{
		{SpeedKmh: 60, CongestionLevel: 1, Age: 2},
		{SpeedKmh: 10, CongestionLevel: 5, IsScale: true, HasIncident: true, Age: 9},
	}
	raw := buildRaw(7, 0, 1_700_000_000, speeds, nil, nil)

	tile, err := Open(raw)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if tile.TileID() != 7 {
		t.Errorf("TileID() = %d, want 7", tile.TileID())
	}
	if tile.LastUpdate() != 1_700_000_000 {
		t.Errorf("LastUpdate() = %d, want 1700000000", tile.LastUpdate())
	}

	got, ok := tile.Speed(1)
	if !ok {
		t.Fatalf("Speed(1) not found")
	}
	if got != speeds[1] {
		t.Errorf("Speed(1) = %+v, want %+v", got, speeds[1])
	}

	if _, ok := tile.Speed(2); ok {
		t.Errorf("Speed(2) should be out of range")
	}
	if _, ok := tile.Speed(-1); ok {
		t.Errorf("Speed(-1) should be out of range")
	}
}

func TestActiveBufferSelectsCorrectIncidentArray(t *testing.T) {
	a := []Incident{{EdgeIndex: 1, Type: 2}}
	b := []Incident{{EdgeIndex: 3, Type: 4}, {EdgeIndex: 5, Type: 6}}

	rawA := buildRaw(1, 0, 0, nil, a, b)
	tileA, err := Open(rawA)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if tileA.ActiveBuffer() != 0 {
		t.Fatalf("ActiveBuffer() = %d, want 0", tileA.ActiveBuffer())
	}
	if got := tileA.Incidents(); len(got) != 1 || got[0] != a[0] {
		t.Errorf("Incidents() = %v, want %v", got, a)
	}

	rawB := buildRaw(1, 1, 0, nil, a, b)
	tileB, err := Open(rawB)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if tileB.ActiveBuffer() != 1 {
		t.Fatalf("ActiveBuffer() = %d, want 1", tileB.ActiveBuffer())
	}
	if got := tileB.Incidents(); len(got) != 2 || got[0] != b[0] || got[1] != b[1] {
		t.Errorf("Incidents() = %v, want %v", got, b)
	}
}

// Property 10: a concurrent active-buffer flip must never make Incidents
// observe a torn state — every call reads the bit exactly once and commits
// to the array that bit names, so it is always one array or the other, in
// full, never a mix and never a panic.
func TestConcurrentActiveBufferFlipNeverPanics(t *testing.T) {
	a := []Incident{{EdgeIndex: 1, Type: 1}}
	b := []Incident{{EdgeIndex: 2, Type: 2}, {EdgeIndex: 3, Type: 3}}
	tile, err := Open(buildRaw(1, 0, 0, nil, a, b))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		flip := uint8(0)
		for {
			select {
			case <-stop:
				return
			default:
				var word uint64
				if flip == 1 {
					word = activeBufferBit
				}
				atomic.StoreUint64(&tile.packed, word)
				flip ^= 1
			}
		}
	}()

	for i := 0; i < 10000; i++ {
		got := tile.Incidents()
		if len(got) != 1 && len(got) != 2 {
			t.Fatalf("Incidents() returned an array of unexpected length %d", len(got))
		}
	}
	close(stop)
	wg.Wait()
}

func TestNilTileIsOverlayAbsent(t *testing.T) {
	var tile *Tile
	if tile.TileID() != 0 {
		t.Errorf("nil Tile.TileID() = %d, want 0", tile.TileID())
	}
	if _, ok := tile.Speed(0); ok {
		t.Errorf("nil Tile.Speed(0) should report not found")
	}
	if got := tile.Incidents(); got != nil {
		t.Errorf("nil Tile.Incidents() = %v, want nil", got)
	}
}
