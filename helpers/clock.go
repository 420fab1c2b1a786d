package helpers

import (
	"sync/atomic"
	"time"
)

// Clock is monotonic time source with blocking wait.
type Clock interface {
	Now() time.Duration
	Sleep(time.Duration)
}

type systemClock struct{ origin time.Time }

func NewSystemClock() Clock { return systemClock{origin: time.Now()} }

func (c systemClock) Now() time.Duration  { return time.Since(c.origin) }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// FakeClock advances only on Sleep or Advance, so tests run timeouts instantly.
type FakeClock struct {
	now    int64
	sleeps int64
}

func (c *FakeClock) Now() time.Duration { return time.Duration(atomic.LoadInt64(&c.now)) }

func (c *FakeClock) Sleep(d time.Duration) {
	atomic.AddInt64(&c.sleeps, 1)
	c.Advance(d)
}

func (c *FakeClock) Advance(d time.Duration) { atomic.AddInt64(&c.now, int64(d)) }

func (c *FakeClock) Sleeps() int { return int(atomic.LoadInt64(&c.sleeps)) }
