package zscore

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRunningUnbiasedStream(t *testing.T) {
	// 8-bit samples with ones-counts 4,4,4: the cumulative mean never leaves
	// mu=4, so every z is exactly zero.
	st, err := NewRunning(8)
	if err != nil {
		t.Fatalf("NewRunning: %v", err)
	}
	for i := 0; i < 3; i++ {
		rec := st.Push(4)
		if rec.Index != i+1 {
			t.Fatalf("sample %d: index = %d", i+1, rec.Index)
		}
		if !almostEqual(rec.CumulativeMean, 4) {
			t.Fatalf("sample %d: cumulative mean = %v", i+1, rec.CumulativeMean)
		}
		if rec.Z != 0 {
			t.Fatalf("sample %d: z = %v, want 0", i+1, rec.Z)
		}
	}
}

func TestRunningBiasedThenBalanced(t *testing.T) {
	// 8-bit samples 8 then 0: mean 8 then 4, z ~2.828 then exactly 0.
	st, err := NewRunning(8)
	if err != nil {
		t.Fatalf("NewRunning: %v", err)
	}
	first := st.Push(8)
	if !almostEqual(first.CumulativeMean, 8) {
		t.Fatalf("first cumulative mean = %v", first.CumulativeMean)
	}
	want := (8.0 - 4.0) / math.Sqrt(2)
	if !almostEqual(first.Z, want) {
		t.Fatalf("first z = %v, want %v", first.Z, want)
	}
	second := st.Push(0)
	if !almostEqual(second.CumulativeMean, 4) {
		t.Fatalf("second cumulative mean = %v", second.CumulativeMean)
	}
	if !almostEqual(second.Z, 0) {
		t.Fatalf("second z = %v, want 0", second.Z)
	}
}

func TestRunningIsSinglePass(t *testing.T) {
	// Feeding a stream incrementally must match recomputing over the same
	// stream in one shot: no hidden windowing or restart.
	counts := []int{100, 130, 127, 119, 140, 128}
	incr, _ := NewRunning(256)
	var last Record
	for _, c := range counts {
		last = incr.Push(c)
	}
	direct, _ := NewRunning(256)
	var want Record
	for _, c := range counts {
		want = direct.Push(c)
	}
	if last.Z != want.Z || last.CumulativeMean != want.CumulativeMean {
		t.Fatalf("incremental %+v != direct %+v", last, want)
	}
}

func TestReplayBinMatchesReplayCSV(t *testing.T) {
	// The same samples persisted as raw bytes and as a tabular log must
	// replay to identical z sequences.
	samples := [][]byte{
		{0xFF, 0x00}, // 8 ones
		{0xAA, 0xAA}, // 8 ones
		{0xFF, 0xFF}, // 16 ones
		{0x00, 0x01}, // 1 one
	}
	var bin bytes.Buffer
	var csvLog strings.Builder
	for _, s := range samples {
		bin.Write(s)
		ones := 0
		for _, b := range s {
			for i := 0; i < 8; i++ {
				ones += int(b>>i) & 1
			}
		}
		fmt.Fprintf(&csvLog, "20250314T09:26:53,%d\n", ones)
	}

	var fromBin, fromCSV []Record
	if err := ReplayBin(&bin, 16, func(r Record) error {
		fromBin = append(fromBin, r)
		return nil
	}); err != nil {
		t.Fatalf("ReplayBin: %v", err)
	}
	if err := ReplayCSV(strings.NewReader(csvLog.String()), 16, func(r Record) error {
		fromCSV = append(fromCSV, r)
		return nil
	}); err != nil {
		t.Fatalf("ReplayCSV: %v", err)
	}

	if len(fromBin) != len(samples) || len(fromCSV) != len(samples) {
		t.Fatalf("record counts: bin=%d csv=%d want %d", len(fromBin), len(fromCSV), len(samples))
	}
	for i := range fromBin {
		if fromBin[i].Z != fromCSV[i].Z {
			t.Fatalf("sample %d: bin z=%v csv z=%v", i+1, fromBin[i].Z, fromCSV[i].Z)
		}
		if fromBin[i].Ones != fromCSV[i].Ones {
			t.Fatalf("sample %d: bin ones=%d csv ones=%d", i+1, fromBin[i].Ones, fromCSV[i].Ones)
		}
	}
	if fromCSV[0].Label != "09:26:53" {
		t.Fatalf("csv label = %q, want normalized HH:MM:SS", fromCSV[0].Label)
	}
}

func TestReplayBinRejectsBadBlockSize(t *testing.T) {
	err := ReplayBin(bytes.NewReader([]byte{1, 2, 3}), 12, func(Record) error { return nil })
	if err == nil {
		t.Fatal("expected error for non-multiple-of-8 block size")
	}
}
