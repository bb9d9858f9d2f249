package engine

import "sync/atomic"

// Clock counts consumed units of work for a session.
//
// One unit is one SELECT/EXPAND/RESCORE/PROPAGATE step. The count is part
// of every checkpoint, and a resumed run continues from the persisted value,
// so the same clock value always names the same point in the search.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations) so a
// progress reporter may read it while the single-threaded loop advances it.
type Clock struct {
	consumed atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock resuming from a persisted count.
func NewClockAt(start int) *Clock {
	c := &Clock{}
	c.consumed.Store(int64(start))
	return c
}

// Next records one more consumed step and returns the new total.
func (c *Clock) Next() int {
	return int(c.consumed.Add(1))
}

// Current returns the consumed total without advancing.
func (c *Clock) Current() int {
	return int(c.consumed.Load())
}
