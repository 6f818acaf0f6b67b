package util

import "time"

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time {
	return time.Now()
}

// Timer measures elapsed durations against a Clock.
type Timer struct {
	start time.Time
	now   Clock
}

// StartTimerWith starts a timer on the supplied clock.
func StartTimerWith(clock Clock) Timer {
	if clock == nil {
		clock = SystemClock
	}
	return Timer{start: clock(), now: clock}
}

// Started returns the time the timer was started.
func (t Timer) Started() time.Time {
	return t.start
}

// Elapsed returns the duration since start.
func (t Timer) Elapsed() time.Duration {
	if t.start.IsZero() || t.now == nil {
		return 0
	}
	return t.now().Sub(t.start)
}

// ElapsedMs returns the elapsed milliseconds since start.
func (t Timer) ElapsedMs() int64 {
	return t.Elapsed().Milliseconds()
}
