package naming

import (
	"testing"
	"time"
)

func TestBuildBaseName(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	name, err := BuildBaseName(now, DeviceTrueRNG, 2048, 1, 0)
	if err != nil {
		t.Fatalf("BuildBaseName: %v", err)
	}
	if name != "20250314T092653_trng_s2048_i1" {
		t.Fatalf("unexpected name: %q", name)
	}

	name, err = BuildBaseName(now, DeviceBitBabbler, 256, 5, 3)
	if err != nil {
		t.Fatalf("BuildBaseName: %v", err)
	}
	if name != "20250314T092653_bitb_s256_i5_f3" {
		t.Fatalf("unexpected folding name: %q", name)
	}
}

func TestBuildBaseNameRejectsBadParams(t *testing.T) {
	now := time.Now()
	if _, err := BuildBaseName(now, Device("quantum"), 256, 1, 0); err == nil {
		t.Fatal("expected error for unknown device")
	}
	if _, err := BuildBaseName(now, DevicePseudo, 0, 1, 0); err == nil {
		t.Fatal("expected error for zero bits")
	}
	if _, err := BuildBaseName(now, DevicePseudo, 256, 0, 0); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

func TestParseRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	binPath, csvPath, err := BuildBinCSVPaths("data", now, DeviceBitBabbler, 2048, 2, 4)
	if err != nil {
		t.Fatalf("BuildBinCSVPaths: %v", err)
	}
	for _, path := range []string{binPath, csvPath} {
		bits, err := ParseBits(path)
		if err != nil || bits != 2048 {
			t.Fatalf("ParseBits(%q) = %d, %v", path, bits, err)
		}
		interval, err := ParseInterval(path)
		if err != nil || interval != 2 {
			t.Fatalf("ParseInterval(%q) = %d, %v", path, interval, err)
		}
		folds, err := ParseFolds(path)
		if err != nil || folds != 4 {
			t.Fatalf("ParseFolds(%q) = %d, %v", path, folds, err)
		}
		dev, err := ParseDevice(path)
		if err != nil || dev != DeviceBitBabbler {
			t.Fatalf("ParseDevice(%q) = %q, %v", path, dev, err)
		}
	}
}

func TestParseFoldsDefaultsToZero(t *testing.T) {
	folds, err := ParseFolds("20250314T092653_trng_s2048_i1.csv")
	if err != nil {
		t.Fatalf("ParseFolds: %v", err)
	}
	if folds != 0 {
		t.Fatalf("expected fold 0 without suffix, got %d", folds)
	}
}
