// Package clock provides the "now" capability used by overdue checks and rollover.
package clock

import "time"

// Clock reports the current time in the planner's reference location.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock and converts it into Location.
type System struct {
	Location *time.Location
}

func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

// Fixed always returns the same instant. Intended for tests.
type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}
