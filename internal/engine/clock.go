package engine

import (
	"sync"
	"time"
)

// Clock supplies timestamps for persisted rows. Receipts hash their creation
// time, so tests inject a deterministic clock to make digests reproducible.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// SteppedClock returns strictly increasing timestamps from a fixed origin,
// advancing by a fixed step per call. Deterministic for golden traces, and
// strictly monotonic so receipt chain ordering by created_at is unambiguous.
type SteppedClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// NewSteppedClock creates a clock starting at origin, advancing by step.
func NewSteppedClock(origin time.Time, step time.Duration) *SteppedClock {
	return &SteppedClock{next: origin, step: step}
}

func (c *SteppedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}
