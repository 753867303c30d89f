package fetch

import (
	"context"
	"sync"
	"time"
)

// throttle enforces a minimum spacing between provider calls process-wide.
// All fetch paths funnel through the one coordinator, so a single gate is
// enough to keep the whole process under the provider quota.
type throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func newThrottle(callsPerMinute int) *throttle {
	interval := time.Duration(0)
	if callsPerMinute > 0 {
		interval = time.Minute / time.Duration(callsPerMinute)
	}
	return &throttle{
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// wait blocks until the next call slot opens, or until ctx is done.
// The slot is claimed before sleeping so concurrent callers space out
// rather than all waking at the same time.
func (t *throttle) wait(ctx context.Context) error {
	if t.interval <= 0 {
		return nil
	}
	t.mu.Lock()
	now := t.now()
	next := t.last.Add(t.interval)
	if next.Before(now) {
		next = now
	}
	t.last = next
	t.mu.Unlock()

	if d := next.Sub(now); d > 0 {
		return t.sleep(ctx, d)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
