package truerng

import (
	"context"
	"testing"

	"go.bug.st/serial/enumerator"
)

func TestIsTrueRNGMatchesProductPrefix(t *testing.T) {
	p := &enumerator.PortDetails{Name: "COM5", IsUSB: true, Product: "TrueRNG 3"}
	if !isTrueRNG(p) {
		t.Fatal("product prefix not matched")
	}
	p = &enumerator.PortDetails{Name: "COM5", IsUSB: true, Product: "Some Modem"}
	if isTrueRNG(p) {
		t.Fatal("unrelated product matched")
	}
}

func TestIsTrueRNGMatchesKnownIDs(t *testing.T) {
	for _, id := range knownIDs {
		p := &enumerator.PortDetails{Name: "ttyACM0", IsUSB: true, VID: id[0], PID: id[1]}
		if !isTrueRNG(p) {
			t.Fatalf("VID/PID %s:%s not matched", id[0], id[1])
		}
	}
	p := &enumerator.PortDetails{Name: "ttyACM0", IsUSB: true, VID: "1234", PID: "5678"}
	if isTrueRNG(p) {
		t.Fatal("unknown VID/PID matched")
	}
}

func TestReadBytesRequiresOpen(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if _, err := s.ReadBytes(ctx, 16); err == nil {
		t.Fatal("expected error reading from unopened source")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close on unopened source: %v", err)
	}
}
