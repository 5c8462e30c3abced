// Package pseudorng is the software fallback entropy source. It draws bytes
// from the host CSPRNG via crypto/rand and is always present, so it is what
// auto-selection substitutes when no hardware device is found. A seedable
// deterministic generator is also provided for reproducible streams.
package pseudorng

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	mrand "math/rand"

	"github.com/Thiagojm/rngkit-go/naming"
)

// Source reads from the host's secure random facility.
type Source struct{}

// New returns the software entropy source.
func New() *Source { return &Source{} }

// Kind returns the device identifier used in capture filenames.
func (s *Source) Kind() naming.Device { return naming.DevicePseudo }

// Detect always reports true: the software source has no hardware to probe.
func (s *Source) Detect() (bool, error) { return true, nil }

// Open is a no-op; crypto/rand needs no session state.
func (s *Source) Open() error { return nil }

// ReadBytes returns exactly n cryptographically secure pseudo-random bytes.
func (s *Source) ReadBytes(ctx context.Context, n int) ([]byte, error) {
	if n <= 0 {
		return nil, errors.New("byte count must be positive")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := crand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close is a no-op.
func (s *Source) Close() error { return nil }

// Generator is a deterministic PRNG that can be seeded for reproducible
// streams, e.g. in tests or demos. If seed is zero, a random seed is drawn
// from crypto/rand.
type Generator struct {
	r *mrand.Rand
}

// NewGenerator creates a deterministic generator from seed.
func NewGenerator(seed uint64) (*Generator, error) {
	if seed == 0 {
		var s [8]byte
		if _, err := crand.Read(s[:]); err != nil {
			return nil, err
		}
		seed = binary.LittleEndian.Uint64(s[:])
	}
	return &Generator{r: mrand.New(mrand.NewSource(int64(seed)))}, nil
}

// ReadBytes returns n deterministic pseudo-random bytes.
func (g *Generator) ReadBytes(n int) ([]byte, error) {
	if g == nil || g.r == nil {
		return nil, errors.New("generator is nil")
	}
	if n <= 0 {
		return nil, errors.New("byte count must be positive")
	}
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(g.r.Intn(256))
	}
	return buf, nil
}
