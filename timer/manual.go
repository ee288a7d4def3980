package timer

import "sync/atomic"

// ManualClock is a Clock driven by hand. Every call to Now advances it by
// Step after reading, which lets polling loops make progress in tests.
type ManualClock struct {
	now  atomic.Uint64
	step atomic.Uint64
}

var _ Clock = (*ManualClock)(nil)

// NewManualClock returns a clock starting at start that advances by step
// microseconds on every Now.
func NewManualClock(start, step uint64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(start)
	c.step.Store(step)
	return c
}

// Now returns the current time, then advances it by the step.
func (c *ManualClock) Now() uint64 {
	step := c.step.Load()
	return c.now.Add(step) - step
}

// Set jumps the clock to us.
func (c *ManualClock) Set(us uint64) {
	c.now.Store(us)
}

// Advance moves the clock forward by us.
func (c *ManualClock) Advance(us uint64) {
	c.now.Add(us)
}

// SetStep changes the per-read advance.
func (c *ManualClock) SetStep(us uint64) {
	c.step.Store(us)
}

// Peek returns the current time without advancing.
func (c *ManualClock) Peek() uint64 {
	return c.now.Load()
}
