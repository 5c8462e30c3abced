// Package naming implements the capture-file naming convention shared by the
// collector and the analyzer:
//
//	YYYYMMDDTHHMMSS_{device}_s{bits}_i{interval}[_f{folds}]
//
// The fold suffix is present only for devices that apply XOR folding.
// The scheme is reversible: bits, interval and fold level can be recovered
// from a capture path, which is how the analyzer configures itself from a
// bare filename.
package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Device identifies the entropy source used for a capture.
// Allowed values are: "trng" (TrueRNG serial), "bitb" (BitBabbler USB), and
// "pseudo" (software CSPRNG).
type Device string

const (
	DeviceTrueRNG    Device = "trng"
	DeviceBitBabbler Device = "bitb"
	DevicePseudo     Device = "pseudo"
)

// Validate checks whether d is one of the allowed device identifiers.
func (d Device) Validate() error {
	if d == DeviceTrueRNG || d == DeviceBitBabbler || d == DevicePseudo {
		return nil
	}
	return fmt.Errorf("invalid device: %q (allowed: trng, bitb, pseudo)", string(d))
}

// Folding reports whether the device kind applies XOR folding, and therefore
// whether capture names for it carry a fold suffix.
func (d Device) Folding() bool { return d == DeviceBitBabbler }

var (
	reInterval = regexp.MustCompile(`_i(\d+)`)
	reBits     = regexp.MustCompile(`_s(\d+)_i`)
	reFolds    = regexp.MustCompile(`_f(\d+)`)
)

// BuildBaseName builds the base capture filename from the time instant and
// session parameters. folds is ignored for non-folding devices.
func BuildBaseName(now time.Time, device Device, bits, intervalSeconds, folds int) (string, error) {
	if err := device.Validate(); err != nil {
		return "", err
	}
	if bits <= 0 {
		return "", errors.New("bits must be > 0")
	}
	if intervalSeconds <= 0 {
		return "", errors.New("intervalSeconds must be > 0")
	}
	if folds < 0 {
		return "", errors.New("folds must be >= 0")
	}
	stamp := now.Format("20060102T150405")
	base := fmt.Sprintf("%s_%s_s%d_i%d", stamp, string(device), bits, intervalSeconds)
	if device.Folding() {
		base += fmt.Sprintf("_f%d", folds)
	}
	return base, nil
}

// BuildBinCSVPaths builds full paths for the .bin and .csv pair inside dir
// (dir may be empty).
func BuildBinCSVPaths(dir string, now time.Time, device Device, bits, intervalSeconds, folds int) (binPath, csvPath string, err error) {
	base, err := BuildBaseName(now, device, bits, intervalSeconds, folds)
	if err != nil {
		return "", "", err
	}
	return JoinDir(dir, base+".bin"), JoinDir(dir, base+".csv"), nil
}

// JoinDir builds a path joining an optional directory with the filename.
// If dir is empty, it returns name as-is.
func JoinDir(dir, name string) string {
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// ParseInterval extracts the sampling interval in seconds from a capture
// path, matching the `_i(\d+)` segment.
func ParseInterval(path string) (int, error) {
	m := reInterval.FindStringSubmatch(path)
	if len(m) < 2 {
		return 0, fmt.Errorf("interval not found in file name: %s", filepath.Base(path))
	}
	return strconv.Atoi(m[1])
}

// ParseBits extracts the sample size in bits from a capture path, matching
// the `_s(\d+)_i` segment.
func ParseBits(path string) (int, error) {
	m := reBits.FindStringSubmatch(path)
	if len(m) < 2 {
		return 0, fmt.Errorf("bit count not found in file name: %s", filepath.Base(path))
	}
	return strconv.Atoi(m[1])
}

// ParseFolds extracts the fold level from a capture path. Paths without a
// fold suffix return 0, since only folding devices encode one.
func ParseFolds(path string) (int, error) {
	m := reFolds.FindStringSubmatch(filepath.Base(path))
	if len(m) < 2 {
		return 0, nil
	}
	return strconv.Atoi(m[1])
}

// ParseDevice extracts the device identifier from a capture path.
func ParseDevice(path string) (Device, error) {
	base := filepath.Base(path)
	for _, d := range []Device{DeviceTrueRNG, DeviceBitBabbler, DevicePseudo} {
		if strings.Contains(base, "_"+string(d)+"_") {
			return d, nil
		}
	}
	return "", fmt.Errorf("device not found in file name: %s", base)
}
