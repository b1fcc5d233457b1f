// Package clock provides the monotonic time source consumed by the
// capability and audit subsystems.
//
// The kernel core never reads the wall clock directly: token expiry and
// audit timestamps both go through a Clock so tests can drive time
// deterministically and a bare-metal port can substitute a hardware
// counter.
package clock

import "time"

// Clock supplies monotonic nanoseconds since boot.
type Clock interface {
	Now() int64
}

// Monotonic is the default clock, anchored at process start.
type Monotonic struct {
	start time.Time
}

// NewMonotonic creates a clock anchored at the current instant.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// Now returns nanoseconds elapsed since the clock was created.
func (m *Monotonic) Now() int64 {
	return int64(time.Since(m.start))
}

// Manual is a test clock advanced by hand.
type Manual struct {
	now int64
}

// NewManual creates a manual clock starting at t nanoseconds.
func NewManual(t int64) *Manual {
	return &Manual{now: t}
}

// Now returns the current manual time.
func (m *Manual) Now() int64 { return m.now }

// Advance moves the clock forward by d nanoseconds.
func (m *Manual) Advance(d int64) { m.now += d }
