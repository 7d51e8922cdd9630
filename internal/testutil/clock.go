package testutil

import "sync"

// FixtureEpoch is the first modification time, in seconds, handed out by
// a new DeterministicClock.
const FixtureEpoch int64 = 1600000000

// DeterministicClock hands out modification timestamps for fixture rows.
//
// Real Anki stamps every note and card with the wall clock; fixtures use
// this clock instead so two builds of the same fixture are byte-identical.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	base int64
	seq  int64
}

// NewDeterministicClock creates a clock starting at FixtureEpoch.
//
// The first call to Next() returns FixtureEpoch+1.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(FixtureEpoch)
}

// NewDeterministicClockAt creates a clock starting at base.
func NewDeterministicClockAt(base int64) *DeterministicClock {
	return &DeterministicClock{base: base}
}

// Next advances the clock by one second and returns the new time.
// Monotonic: never decreases.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.base + c.seq
}

// Current returns the current time without advancing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base + c.seq
}

// Reset rewinds the clock to its base.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
