package bench

import "time"

// Clock is a monotonic time source. Readings are only meaningful relative to
// other readings from the same Clock.
type Clock interface {
	Now() time.Duration
}

// MonotonicClock reads Go's monotonic clock relative to the moment it was
// created.
type MonotonicClock struct {
	epoch time.Time
}

// NewMonotonicClock returns a Clock backed by the runtime's monotonic timer.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{epoch: time.Now()}
}

// Now returns the elapsed time since the clock was created.
func (c *MonotonicClock) Now() time.Duration {
	return time.Since(c.epoch)
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Duration

func (f ClockFunc) Now() time.Duration {
	return f()
}
