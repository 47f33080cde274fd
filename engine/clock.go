package engine

import (
	"sync"
	"time"
)

// TimeProvider is the clock the engine and frame drivers read
type TimeProvider interface {
	Now() time.Time
}

// SystemClock reads the wall clock; time.Now carries the monotonic reading used for elapsed math
type SystemClock struct{}

// Now implements TimeProvider
func (SystemClock) Now() time.Time {
	return time.Now()
}

// VirtualClock only moves when told to
// Used by SteppedScheduler for tests and headless export
type VirtualClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewVirtualClock creates a clock stopped at start
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{now: start}
}

// Now implements TimeProvider
func (c *VirtualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set jumps to t, which may be in the past
func (c *VirtualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d
func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
