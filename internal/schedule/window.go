package schedule

import "time"

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window starting at start with the given duration.
func NewWindow(start time.Time, d time.Duration) Window {
	return Window{Start: start, End: start.Add(d)}
}

// Overlaps reports whether the two half-open intervals intersect.
// Back-to-back windows (one ending exactly when the other starts) do not
// overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// Slot is a bookable date/time pair in the engine's zone.
type Slot struct {
	Date string // YYYY-MM-DD
	Time string // HH:MM, 24-hour
}
