package engine

import "time"

// Clock reports elapsed seconds from a monotonic source. The session
// owns one clock for the whole run; each trial resets its own.
type Clock interface {
	Seconds() float64
	Reset()
}

type monotonicClock struct {
	start time.Time
}

// NewClock returns a Clock backed by the runtime monotonic clock.
func NewClock() Clock {
	return &monotonicClock{start: time.Now()}
}

func (c *monotonicClock) Seconds() float64 {
	return time.Since(c.start).Seconds()
}

func (c *monotonicClock) Reset() {
	c.start = time.Now()
}
