// Package collect implements the timed acquisition loop: it paces an entropy
// source at a fixed interval, persists every sample to an append-only
// .bin/.csv pair and feeds the running Z statistic. One session owns its log
// handles end to end; cancellation finishes the in-flight sample and closes
// cleanly.
package collect

import (
	"errors"
	"fmt"
	"time"

	"github.com/Thiagojm/rngkit-go/bbusb"
)

// ErrInvalidConfig wraps all parameter validation failures. It is returned
// before any I/O happens.
var ErrInvalidConfig = errors.New("invalid acquisition config")

// ErrDeviceUnavailable is returned when the session's source does not detect
// its device at start.
var ErrDeviceUnavailable = errors.New("entropy device unavailable")

// Config are the immutable parameters of one acquisition session,
// validated once at session start.
type Config struct {
	// SampleBits is the sample size in bits; positive multiple of 8.
	SampleBits int
	// IntervalSeconds is the wall-clock spacing between samples; >= 1.
	IntervalSeconds int
	// DurationSeconds optionally bounds the session; 0 means unbounded.
	// The bound is soft: a cycle already started is allowed to finish.
	DurationSeconds int
	// Folds is the XOR fold level, meaningful only for folding devices.
	Folds int
}

// Validate checks the config. All violations are reported as
// ErrInvalidConfig.
func (c Config) Validate() error {
	if c.SampleBits <= 0 || c.SampleBits%8 != 0 {
		return fmt.Errorf("%w: sample bits must be a positive multiple of 8, got %d", ErrInvalidConfig, c.SampleBits)
	}
	if c.IntervalSeconds < 1 {
		return fmt.Errorf("%w: interval must be >= 1 second, got %d", ErrInvalidConfig, c.IntervalSeconds)
	}
	if c.DurationSeconds < 0 {
		return fmt.Errorf("%w: duration must be >= 0 seconds, got %d", ErrInvalidConfig, c.DurationSeconds)
	}
	if c.Folds < 0 || c.Folds > bbusb.MaxFold {
		return fmt.Errorf("%w: fold level must be in [0, %d], got %d", ErrInvalidConfig, bbusb.MaxFold, c.Folds)
	}
	return nil
}

// BytesPerSample returns the raw sample length in bytes.
func (c Config) BytesPerSample() int { return c.SampleBits / 8 }

// Interval returns the sampling interval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Duration returns the optional session bound, or 0 when unbounded.
func (c Config) Duration() time.Duration {
	return time.Duration(c.DurationSeconds) * time.Second
}
