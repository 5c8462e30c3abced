package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestInsertAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rngkit.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	first := Session{
		StartedAt:       time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		Device:          "pseudo",
		Bits:            256,
		IntervalSeconds: 1,
		Samples:         120,
		FinalZ:          0.42,
		BinPath:         "data/a.bin",
		CSVPath:         "data/a.csv",
		Outcome:         "completed",
		ElapsedMs:       120000,
	}
	second := first
	second.StartedAt = first.StartedAt.Add(time.Hour)
	second.Device = "bitb"
	second.Folds = 2
	second.Outcome = "failed"

	if _, err := c.Insert(ctx, first); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	id, err := c.Insert(ctx, second)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero row id")
	}

	sessions, err := c.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("listed %d sessions, want 2", len(sessions))
	}
	// Newest first.
	if sessions[0].Device != "bitb" || sessions[0].Folds != 2 {
		t.Fatalf("unexpected newest session: %+v", sessions[0])
	}
	if !sessions[0].StartedAt.Equal(second.StartedAt) {
		t.Fatalf("started_at round-trip: got %v, want %v", sessions[0].StartedAt, second.StartedAt)
	}

	limited, err := c.List(ctx, 1)
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limited list returned %d sessions, want 1", len(limited))
	}
}
