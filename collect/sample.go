package collect

import (
	"math/bits"
	"time"
)

// Sample is one acquired block of entropy. Immutable once produced.
type Sample struct {
	// Seq is the 1-based sequence number within the session.
	Seq uint64
	// Timestamp is the acquisition time, second precision in the logs.
	Timestamp time.Time
	// Raw holds exactly Config.BytesPerSample bytes.
	Raw []byte
	// Ones is the number of set bits in Raw.
	Ones int
}

// countOnes returns the number of set bits in buf.
func countOnes(buf []byte) int {
	total := 0
	for _, b := range buf {
		total += bits.OnesCount8(b)
	}
	return total
}
