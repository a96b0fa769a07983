package tile

import (
	"fmt"

	"github.com/zeebo/blake3"
)

// trailerSize is the length of the BLAKE3 digest appended to every tile file.
const trailerSize = 32

// appendTrailer returns data with a BLAKE3 digest of data appended.
func appendTrailer(data []byte) []byte {
	sum := blake3.Sum256(data)
	return append(data, sum[:]...)
}

// verifyTrailer checks that the last trailerSize bytes of data are the
// BLAKE3 digest of everything before them, returning the payload with the
// trailer stripped.
func verifyTrailer(data []byte) ([]byte, error) {
	if len(data) < trailerSize {
		return nil, fmt.Errorf("tile: file too small to contain an integrity trailer (%d bytes)", len(data))
	}
	payload := data[:len(data)-trailerSize]
	want := data[len(data)-trailerSize:]
	got := blake3.Sum256(payload)
	for i := range want {
		if got[i] != want[i] {
			return nil, fmt.Errorf("tile: integrity digest mismatch")
		}
	}
	return payload, nil
}
