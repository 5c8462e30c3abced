package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Thiagojm/rngkit-go/zscore"
)

func TestWriteExcelFromRecords(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "20250314T092653_pseudo_s16_i1.csv")

	st, err := zscore.NewRunning(16)
	if err != nil {
		t.Fatalf("NewRunning: %v", err)
	}
	var records []zscore.Record
	for _, ones := range []int{8, 10, 7} {
		records = append(records, st.Push(ones))
	}

	out, err := WriteExcel(records, src, 16, 1)
	if err != nil {
		t.Fatalf("WriteExcel: %v", err)
	}
	if !strings.HasSuffix(out, ".xlsx") {
		t.Fatalf("output path %q is not .xlsx", out)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat report: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("report file is empty")
	}
}

func TestWriteExcelRejectsEmpty(t *testing.T) {
	if _, err := WriteExcel(nil, "x.csv", 16, 1); err == nil {
		t.Fatal("expected error for empty record set")
	}
}

func TestAnalyzeBinLog(t *testing.T) {
	dir := t.TempDir()
	binPath := filepath.Join(dir, "20250314T092653_pseudo_s16_i1.bin")
	// Three 16-bit samples.
	if err := os.WriteFile(binPath, []byte{0xFF, 0x00, 0xAA, 0xAA, 0x0F, 0xF0}, 0o644); err != nil {
		t.Fatalf("write bin: %v", err)
	}
	out, n, err := Analyze(binPath, 16, 1)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if n != 3 {
		t.Fatalf("analyzed %d samples, want 3", n)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("report missing: %v", err)
	}
}

func TestConcatCSV(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	if err := os.WriteFile(a, []byte("09:00:00,8\n09:00:01,7\n"), 0o644); err != nil {
		t.Fatalf("write a: %v", err)
	}
	// No trailing newline; concat must still keep rows on separate lines.
	if err := os.WriteFile(b, []byte("09:00:02,9"), 0o644); err != nil {
		t.Fatalf("write b: %v", err)
	}
	out := filepath.Join(dir, "all.csv")
	if err := ConcatCSV(out, []string{a, b}); err != nil {
		t.Fatalf("ConcatCSV: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read out: %v", err)
	}
	want := "09:00:00,8\n09:00:01,7\n09:00:02,9\n"
	if string(data) != want {
		t.Fatalf("concat output = %q, want %q", string(data), want)
	}

	if err := ConcatCSV(out, []string{a}); err == nil {
		t.Fatal("expected error for single input")
	}
}
