package collect

import (
	"context"
	"time"
)

// Clock converts the configured interval into actual inter-sample delays.
// The delay for a cycle is the interval minus the time the cycle's work
// took, clamped at zero: a slow cycle falls behind real time instead of
// shortening later intervals to catch up.
type Clock struct {
	Interval time.Duration
}

// NextDelay returns how long to wait before the next sample given how long
// the current cycle's work took. Never negative.
func (c Clock) NextDelay(elapsed time.Duration) time.Duration {
	if elapsed >= c.Interval {
		return 0
	}
	return c.Interval - elapsed
}

// Wait sleeps for NextDelay(elapsed) or until ctx is cancelled, whichever
// comes first. It returns false when the wait was cut short by cancellation.
func (c Clock) Wait(ctx context.Context, elapsed time.Duration) bool {
	d := c.NextDelay(elapsed)
	if d == 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
