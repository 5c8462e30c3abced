package zscore

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ReplayBin streams records from a raw binary log: consecutive sampleBits/8
// byte blocks in file order, ones-counted by popcount. It reads one block at
// a time and never buffers the whole file. A short final block (a crash
// artifact) is counted over the bytes present, matching the collector's
// append granularity. fn is called once per sample; a non-nil return stops
// the replay and is passed through.
func ReplayBin(r io.Reader, sampleBits int, fn func(Record) error) error {
	if sampleBits <= 0 || sampleBits%8 != 0 {
		return errors.New("sample size must be a positive multiple of 8 bits")
	}
	if fn == nil {
		return errors.New("fn must not be nil")
	}
	st, err := NewRunning(sampleBits)
	if err != nil {
		return err
	}
	bytesPerBlock := sampleBits / 8
	br := bufio.NewReader(r)
	buf := make([]byte, bytesPerBlock)
	for {
		n, rerr := io.ReadFull(br, buf)
		if n > 0 {
			ones := 0
			for i := 0; i < n; i++ {
				ones += bits.OnesCount8(buf[i])
			}
			if err := fn(st.Push(ones)); err != nil {
				return err
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
				return nil
			}
			return rerr
		}
	}
}

// ReplayCSV streams records from a tabular log: one `timestamp,onesCount`
// line per sample, no header, in acquisition order. Records are read one at
// a time. The replayed Z sequence is identical to the one computed live and
// to ReplayBin over the matching binary log.
func ReplayCSV(r io.Reader, sampleBits int, fn func(Record) error) error {
	if sampleBits <= 0 {
		return errors.New("sample size must be > 0")
	}
	if fn == nil {
		return errors.New("fn must not be nil")
	}
	st, err := NewRunning(sampleBits)
	if err != nil {
		return err
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	for {
		rec, rerr := cr.Read()
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return nil
			}
			return rerr
		}
		if len(rec) < 2 {
			continue
		}
		ones, cerr := strconv.Atoi(strings.TrimSpace(rec[1]))
		if cerr != nil {
			return fmt.Errorf("invalid ones value %q: %w", rec[1], cerr)
		}
		out := st.Push(ones)
		out.Label = formatTimeLabel(strings.TrimSpace(rec[0]))
		if err := fn(out); err != nil {
			return err
		}
	}
}

// ReplayFile replays a persisted capture log by extension (.bin or .csv).
func ReplayFile(path string, sampleBits int, fn func(Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".bin":
		return ReplayBin(f, sampleBits, fn)
	case ".csv":
		return ReplayCSV(f, sampleBits, fn)
	default:
		return fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// formatTimeLabel normalizes a capture timestamp to HH:MM:SS for reporting.
// Unparseable strings pass through unchanged.
func formatTimeLabel(s string) string {
	formats := []string{
		"20060102T15:04:05",
		"20060102T150405",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"15:04:05",
		"15:04",
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05")
		}
	}
	return s
}
