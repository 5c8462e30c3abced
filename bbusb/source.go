// Package bbusb reads entropy from a BitBabbler USB TRNG, an FTDI MPSSE
// device (VID 0x0403, PID 0x7840). The device streams raw bits; an optional
// XOR fold trades throughput for bias reduction: at fold level k, 2^k raw
// blocks are read and folded together for each block delivered.
package bbusb

import (
	"context"
	"fmt"

	"github.com/Thiagojm/rngkit-go/naming"
)

// MaxFold is the highest supported fold level. Fold 0 is RAW mode.
const MaxFold = 4

// Source is a BitBabbler entropy source with a fixed fold level.
type Source struct {
	folds int
	sess  *session
}

// New returns an unopened BitBabbler source. folds must be in [0, MaxFold].
func New(folds int) (*Source, error) {
	if folds < 0 || folds > MaxFold {
		return nil, fmt.Errorf("fold level must be in [0, %d], got %d", MaxFold, folds)
	}
	return &Source{folds: folds}, nil
}

// Kind returns the device identifier used in capture filenames.
func (s *Source) Kind() naming.Device { return naming.DeviceBitBabbler }

// Folds returns the configured fold level.
func (s *Source) Folds() int { return s.folds }

// Detect reports whether a BitBabbler is present without claiming it.
func (s *Source) Detect() (bool, error) {
	return detectPresent()
}

// Open claims the first BitBabbler and initializes its MPSSE engine with
// the vendor default clock and latency.
func (s *Source) Open() error {
	if s.sess != nil {
		return fmt.Errorf("bbusb: already open")
	}
	sess, err := openSession(0, 0)
	if err != nil {
		return fmt.Errorf("open BitBabbler: %w", err)
	}
	s.sess = sess
	return nil
}

// ReadBytes returns exactly n bytes. At fold level k it reads 2^k raw blocks
// of n bytes and XOR-folds successive blocks together; at fold 0 it passes
// the raw block through.
func (s *Source) ReadBytes(ctx context.Context, n int) ([]byte, error) {
	if s.sess == nil {
		return nil, fmt.Errorf("bbusb: not open")
	}
	if n <= 0 {
		return nil, fmt.Errorf("byte count must be positive")
	}
	out := make([]byte, n)
	if err := s.sess.readRandom(ctx, out); err != nil {
		return nil, fmt.Errorf("read BitBabbler: %w", err)
	}
	if s.folds > 0 {
		block := make([]byte, n)
		for i := 1; i < 1<<s.folds; i++ {
			if err := s.sess.readRandom(ctx, block); err != nil {
				return nil, fmt.Errorf("read BitBabbler (fold pass %d): %w", i, err)
			}
			xorInto(out, block)
		}
	}
	return out, nil
}

// Close releases the USB session. Safe to call on an unopened source.
func (s *Source) Close() error {
	if s.sess != nil {
		s.sess.Close()
		s.sess = nil
	}
	return nil
}

// xorInto folds src into dst in place. Slices must be the same length.
func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}
