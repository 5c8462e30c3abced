// Package truerng reads random bytes from a TrueRNG USB device presented as
// a serial port. Detection enumerates serial ports and matches the TrueRNG
// product prefix or one of the known VID/PID pairs. The port is opened once
// per session: DTR is asserted to start the bit stream and any stale
// buffered bytes are discarded before the first read.
package truerng

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/Thiagojm/rngkit-go/naming"
)

// DeviceNamePrefix identifies a TrueRNG device by its product description.
const DeviceNamePrefix = "TrueRNG"

// readTimeout bounds a single sample read. A read that cannot complete
// within it is a device failure, not something to wait out.
const readTimeout = 10 * time.Second

// knownIDs are the VID/PID pairs of the TrueRNG family
// (TrueRNG3, TrueRNGpro, TrueRNGproV2).
var knownIDs = [][2]string{
	{"04D8", "F5FE"},
	{"16D0", "0AA0"},
	{"04D8", "EBB5"},
}

// Source is a serial TrueRNG entropy source. The zero value is unusable;
// call New, then Open before ReadBytes.
type Source struct {
	port     serial.Port
	portName string
}

// New returns an unopened TrueRNG source.
func New() *Source { return &Source{} }

// Kind returns the device identifier used in capture filenames.
func (s *Source) Kind() naming.Device { return naming.DeviceTrueRNG }

// Detect reports whether a TrueRNG device is present. Absence is not an
// error; only enumeration failures are.
func (s *Source) Detect() (bool, error) {
	port, err := findPort()
	if err != nil {
		return false, err
	}
	return port != "", nil
}

// Open claims the first detected TrueRNG port for the session, asserts DTR
// and discards any buffered stale bytes.
func (s *Source) Open() error {
	if s.port != nil {
		return errors.New("truerng: already open")
	}
	portName, err := findPort()
	if err != nil {
		return err
	}
	if portName == "" {
		return errors.New("TrueRNG device not found")
	}

	mode := &serial.Mode{
		BaudRate: 3000000, // models clamp to what they support
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", portName, err)
	}
	if err := port.SetDTR(true); err != nil {
		_ = port.Close()
		return fmt.Errorf("set DTR on %s: %w", portName, err)
	}
	_ = port.SetReadTimeout(time.Second)
	// Stale bytes matter only for the very first read; a failed flush is
	// not fatal.
	_ = port.ResetInputBuffer()
	s.port = port
	s.portName = portName
	return nil
}

// ReadBytes reads exactly n bytes from the open port. A short read that
// cannot be completed before the timeout is an error; no partial buffer is
// returned. The context cancels the read between port reads.
func (s *Source) ReadBytes(ctx context.Context, n int) ([]byte, error) {
	if s.port == nil {
		return nil, errors.New("truerng: not open")
	}
	if n <= 0 {
		return nil, errors.New("byte count must be positive")
	}
	buf := make([]byte, n)
	total := 0
	deadline := time.Now().Add(readTimeout)
	for total < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("read timeout after %s: read %d/%d bytes", readTimeout, total, n)
		}
		m, err := s.port.Read(buf[total:])
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.portName, err)
		}
		total += m
		if m == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
	return buf, nil
}

// Close releases the serial port. Safe to call on an unopened source.
func (s *Source) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// findPort returns the port name of the first TrueRNG found in enumeration
// order, or "" if none is present.
func findPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("enumerating ports: %w", err)
	}
	for _, p := range ports {
		if p == nil {
			continue
		}
		if isTrueRNG(p) && p.Name != "" {
			return p.Name, nil
		}
	}
	return "", nil
}

func isTrueRNG(p *enumerator.PortDetails) bool {
	if p.IsUSB {
		if hasPrefix(p.Product) || hasPrefix(p.SerialNumber) {
			return true
		}
		for _, id := range knownIDs {
			if p.VID == id[0] && p.PID == id[1] {
				return true
			}
		}
	}
	return hasPrefix(p.Name)
}

func hasPrefix(s string) bool {
	return len(s) >= len(DeviceNamePrefix) && s[:len(DeviceNamePrefix)] == DeviceNamePrefix
}
