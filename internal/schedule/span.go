package schedule

import "time"

// Span is an inclusive range of calendar dates. A zero End means the span
// covers only Start.
type Span struct {
	Start time.Time
	End   time.Time
}

// NewSpan normalizes both bounds to calendar dates.
func NewSpan(start, end time.Time) Span {
	span := Span{Start: Day(start)}
	if !end.IsZero() {
		span.End = Day(end)
	}
	return span
}

// Last returns the final covered date.
func (s Span) Last() time.Time {
	if s.End.IsZero() {
		return s.Start
	}
	return s.End
}

// Length reports the number of days between the first and last date.
func (s Span) Length() int {
	return int(s.Last().Sub(s.Start).Hours() / 24)
}

// Overlaps reports whether the spans share at least one date.
func (s Span) Overlaps(other Span) bool {
	return !s.Start.After(other.Last()) && !s.Last().Before(other.Start)
}

// Contains reports whether day falls within the span.
func (s Span) Contains(day time.Time) bool {
	day = Day(day)
	return !day.Before(s.Start) && !day.After(s.Last())
}

// Clip restricts the span to window. It reports false when nothing remains.
func (s Span) Clip(window Span) (Span, bool) {
	if !s.Overlaps(window) {
		return Span{}, false
	}
	clipped := Span{Start: s.Start, End: s.Last()}
	if clipped.Start.Before(window.Start) {
		clipped.Start = window.Start
	}
	if clipped.End.After(window.Last()) {
		clipped.End = window.Last()
	}
	return clipped, true
}

// Shift moves the span so it begins on start while keeping its length.
func (s Span) Shift(start time.Time) Span {
	start = Day(start)
	return Span{Start: start, End: start.AddDate(0, 0, s.Length())}
}

// Days lists every covered date in order. An inverted span yields nothing.
func (s Span) Days() []time.Time {
	last := s.Last()
	if s.Start.IsZero() || last.Before(s.Start) {
		return nil
	}
	days := make([]time.Time, 0, s.Length()+1)
	for current := s.Start; !current.After(last); current = current.AddDate(0, 0, 1) {
		days = append(days, current)
	}
	return days
}
