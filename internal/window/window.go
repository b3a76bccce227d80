// Package window resolves the daily task-creation window. A window is a
// local time-of-day interval; when the configured end is not after the start
// the window crosses midnight and its end lands on the following calendar day.
package window

import (
	"fmt"
	"time"

	"github.com/stakedo/stakedo/internal/domain"
)

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseHHMM parses a "HH:MM" string.
func ParseHHMM(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", domain.ErrInvalidWindow, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", domain.ErrInvalidWindow, s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// Window is the concrete start/end instants of one day's creation window.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether at falls inside the window, boundaries inclusive.
func (w Window) Contains(at time.Time) bool {
	return !at.Before(w.Start) && !at.After(w.End)
}

// Span returns the window's length.
func (w Window) Span() time.Duration { return w.End.Sub(w.Start) }

// CrossesMidnight reports whether the window ends on a later calendar day
// than it starts.
func (w Window) CrossesMidnight() bool {
	sy, sm, sd := w.Start.Date()
	ey, em, ed := w.End.Date()
	return sy != ey || sm != em || sd != ed
}

// Resolver computes creation windows from configured bounds.
type Resolver struct {
	start TimeOfDay
	end   TimeOfDay
}

// NewResolver builds a resolver from "HH:MM" bounds.
func NewResolver(start, end string) (*Resolver, error) {
	s, err := ParseHHMM(start)
	if err != nil {
		return nil, err
	}
	e, err := ParseHHMM(end)
	if err != nil {
		return nil, err
	}
	return &Resolver{start: s, end: e}, nil
}

// For combines day's date with the configured bounds. If end <= start the
// end is pushed to the next calendar day.
func (r *Resolver) For(day time.Time) Window {
	start := time.Date(day.Year(), day.Month(), day.Day(), r.start.Hour, r.start.Minute, 0, 0, day.Location())
	end := time.Date(day.Year(), day.Month(), day.Day(), r.end.Hour, r.end.Minute, 0, 0, day.Location())
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return Window{Start: start, End: end}
}

// Today returns the window for now's calendar day.
func (r *Resolver) Today(now time.Time) Window {
	return r.For(now)
}

// InWindow reports whether at falls inside the creation window. When at
// precedes today's start and the window crosses midnight, the check is
// retried against yesterday's window: a 23:00–02:00 window must still read
// as open at 01:00 the next calendar day.
func (r *Resolver) InWindow(at time.Time) bool {
	today := r.For(at)
	if today.Contains(at) {
		return true
	}
	if at.Before(today.Start) && today.CrossesMidnight() {
		return r.For(at.AddDate(0, 0, -1)).Contains(at)
	}
	return false
}
