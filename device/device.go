// Package device defines the entropy-source capability used by the
// acquisition loop and the policy that picks a concrete source. A source is
// detected without side effects, opened once per session, read repeatedly,
// and closed when the session ends. Adding a device kind means adding an
// implementation, not touching the loop.
package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/Thiagojm/rngkit-go/bbusb"
	"github.com/Thiagojm/rngkit-go/naming"
	"github.com/Thiagojm/rngkit-go/pseudorng"
	"github.com/Thiagojm/rngkit-go/truerng"
)

// ErrNotFound is returned when a requested hardware source is not present.
var ErrNotFound = errors.New("entropy source not detected")

// Source is the capability set a sampling session needs from an entropy
// device. Detect reports presence without claiming the device and must not
// fail for mere absence. Open claims the device for the session; ReadBytes
// returns exactly n bytes or an error, never a short buffer.
type Source interface {
	Kind() naming.Device
	Detect() (bool, error)
	Open() error
	ReadBytes(ctx context.Context, n int) ([]byte, error)
	Close() error
}

// Selection is the outcome of the source-selection policy.
type Selection struct {
	Source Source
	// Fallback is true when no hardware was found and the software source
	// was substituted. Callers surface this; substitution is never silent.
	Fallback bool
}

// New constructs the source for an explicitly requested device kind.
// folds only affects folding devices.
func New(kind naming.Device, folds int) (Source, error) {
	switch kind {
	case naming.DeviceTrueRNG:
		return truerng.New(), nil
	case naming.DeviceBitBabbler:
		return bbusb.New(folds)
	case naming.DevicePseudo:
		return pseudorng.New(), nil
	default:
		return nil, fmt.Errorf("unknown device kind: %q", string(kind))
	}
}

// Require returns the source for kind only if it is actually present,
// wrapping absence in ErrNotFound.
func Require(kind naming.Device, folds int) (Source, error) {
	src, err := New(kind, folds)
	if err != nil {
		return nil, err
	}
	present, err := src.Detect()
	if err != nil {
		return nil, fmt.Errorf("detect %s: %w", kind, err)
	}
	if !present {
		return nil, fmt.Errorf("%s: %w", kind, ErrNotFound)
	}
	return src, nil
}

// Auto enumerates the known hardware kinds in fixed order (TrueRNG first,
// then BitBabbler) and returns the first one present. When none is found it
// falls back to the software source with Fallback set.
func Auto(folds int) (Selection, error) {
	hardware := []naming.Device{naming.DeviceTrueRNG, naming.DeviceBitBabbler}
	for _, kind := range hardware {
		src, err := New(kind, folds)
		if err != nil {
			return Selection{}, err
		}
		// An enumeration failure counts as "not present" for auto-selection;
		// explicit selection via Require still reports it.
		if present, err := src.Detect(); err == nil && present {
			return Selection{Source: src}, nil
		}
	}
	return Selection{Source: pseudorng.New(), Fallback: true}, nil
}
