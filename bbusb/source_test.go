package bbusb

import (
	"context"
	"testing"
)

func TestNewRejectsFoldOutOfRange(t *testing.T) {
	for _, folds := range []int{-1, 5, 10} {
		if _, err := New(folds); err == nil {
			t.Fatalf("expected error for fold level %d", folds)
		}
	}
	for folds := 0; folds <= MaxFold; folds++ {
		src, err := New(folds)
		if err != nil {
			t.Fatalf("fold level %d: %v", folds, err)
		}
		if src.Folds() != folds {
			t.Fatalf("Folds() = %d, want %d", src.Folds(), folds)
		}
	}
}

func TestXorInto(t *testing.T) {
	dst := []byte{0xFF, 0x0F, 0xAA}
	xorInto(dst, []byte{0xFF, 0xF0, 0x55})
	want := []byte{0x00, 0xFF, 0xFF}
	for i := range dst {
		if dst[i] != want[i] {
			t.Fatalf("byte %d: got %#02x, want %#02x", i, dst[i], want[i])
		}
	}
}

func TestReadBytesRequiresOpen(t *testing.T) {
	src, err := New(0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if _, err := src.ReadBytes(ctx, 16); err == nil {
		t.Fatal("expected error reading from unopened source")
	}
	if err := src.Close(); err != nil {
		t.Fatalf("Close on unopened source: %v", err)
	}
}
