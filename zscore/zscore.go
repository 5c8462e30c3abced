// Package zscore maintains the running one-sample Z statistic for a stream
// of per-sample ones-counts. Under the null hypothesis of unbiased bits a
// sample of L bits has expected ones-count mu = L/2 with standard deviation
// sigma = sqrt(L*0.25); the statistic for sample i (1-indexed) is
//
//	z_i = (cumulativeMean_i - mu) / (sigma / sqrt(i))
//
// The same Running type backs live collection and offline replay of a
// persisted log, so both produce identical record sequences.
package zscore

import (
	"errors"
	"fmt"
	"math"
)

// Record is the per-sample output of the running statistic.
type Record struct {
	// Index is the 1-based sample number.
	Index int
	// Label is the reporting label for the sample: the capture timestamp
	// when replaying a .csv log, the block number when replaying a .bin.
	Label string
	// Ones is the sample's ones-count.
	Ones int
	// CumulativeMean is the mean ones-count over samples 1..Index.
	CumulativeMean float64
	// Z is the running Z statistic after this sample.
	Z float64
}

// Running accumulates ones-counts and computes the Z statistic
// incrementally. It never buffers history and never rolls back.
type Running struct {
	expMean float64
	expSD   float64
	count   int
	sum     int64
}

// NewRunning returns a running statistic for samples of the given size in
// bits. Bits must be positive.
func NewRunning(bits int) (*Running, error) {
	if bits <= 0 {
		return nil, errors.New("bits must be > 0")
	}
	return &Running{
		expMean: 0.5 * float64(bits),
		expSD:   math.Sqrt(float64(bits) * 0.25),
	}, nil
}

// Push feeds the next sample's ones-count and returns its record.
// The first sample divides by sigma/sqrt(1) = sigma; no special case.
func (r *Running) Push(ones int) Record {
	r.count++
	r.sum += int64(ones)
	mean := float64(r.sum) / float64(r.count)
	z := (mean - r.expMean) / (r.expSD / math.Sqrt(float64(r.count)))
	return Record{
		Index:          r.count,
		Label:          fmt.Sprintf("%d", r.count),
		Ones:           ones,
		CumulativeMean: mean,
		Z:              z,
	}
}

// Count returns the number of samples pushed so far.
func (r *Running) Count() int { return r.count }

// ExpectedMean returns mu for the configured sample size.
func (r *Running) ExpectedMean() float64 { return r.expMean }

// ExpectedSD returns sigma for the configured sample size.
func (r *Running) ExpectedSD() float64 { return r.expSD }
