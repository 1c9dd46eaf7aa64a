// Package clock keeps a world's virtual time. Virtual time advances once per
// tick by the measured real delta, so durations are wall-clock real but
// independent of how often ticks run.
package clock

import "time"

// Virtual is a clock owned by one world. It keeps full precision and reads
// out in milliseconds.
type Virtual struct {
	elapsed time.Duration
	last    time.Duration
}

// Now returns the current virtual time in milliseconds.
func (c *Virtual) Now() int64 { return c.elapsed.Milliseconds() }

// Elapsed returns the current virtual time at full precision.
func (c *Virtual) Elapsed() time.Duration { return c.elapsed }

// Delta returns the step applied by the last Advance.
func (c *Virtual) Delta() time.Duration { return c.last }

// Advance moves virtual time forward. Negative deltas are ignored.
func (c *Virtual) Advance(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.last = d
	c.elapsed += d
}

// Set restores the clock from a snapshot.
func (c *Virtual) Set(ms int64) {
	c.elapsed = time.Duration(ms) * time.Millisecond
	c.last = 0
}

// Stopwatch measures the real time between successive Lap calls.
type Stopwatch struct {
	prev time.Time
	now  func() time.Time
}

func NewStopwatch(now func() time.Time) *Stopwatch {
	if now == nil {
		now = time.Now
	}
	return &Stopwatch{now: now}
}

// Lap returns the time elapsed since the previous Lap (zero on the first call).
func (s *Stopwatch) Lap() time.Duration {
	t := s.now()
	if s.prev.IsZero() {
		s.prev = t
		return 0
	}
	d := t.Sub(s.prev)
	s.prev = t
	return d
}
