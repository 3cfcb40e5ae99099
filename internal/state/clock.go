package state

import (
	"sync"
	"time"
)

// Clock reports milliseconds since a sketch-local epoch.
type Clock struct {
	mu    sync.Mutex
	epoch time.Time
	now   func() time.Time
}

// NewClock starts a clock at the current wall time.
func NewClock() *Clock {
	return NewClockFunc(time.Now)
}

// NewClockFunc starts a clock driven by now, which tests use to step time.
func NewClockFunc(now func() time.Time) *Clock {
	return &Clock{epoch: now(), now: now}
}

// Millis returns the elapsed time since the epoch in milliseconds.
func (c *Clock) Millis() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.now().Sub(c.epoch)) / float64(time.Millisecond)
}

// Reset moves the epoch to now.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch = c.now()
}
