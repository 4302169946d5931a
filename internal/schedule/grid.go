package schedule

import "time"

// MonthGrid is the padded set of Sunday-first weeks covering a month,
// including spillover days from adjacent months.
type MonthGrid struct {
	Year  int
	Month time.Month
	Weeks [][]time.Time
}

// NewMonthGrid builds the grid for the given month.
func NewMonthGrid(year int, month time.Month) MonthGrid {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	grid := MonthGrid{Year: first.Year(), Month: first.Month()}
	for weekStart := start; !weekStart.After(end); weekStart = weekStart.AddDate(0, 0, 7) {
		week := make([]time.Time, 7)
		for i := range week {
			week[i] = weekStart.AddDate(0, 0, i)
		}
		grid.Weeks = append(grid.Weeks, week)
	}
	return grid
}

// Bounds returns the span from the first to the last grid cell.
func (g MonthGrid) Bounds() Span {
	if len(g.Weeks) == 0 {
		return Span{}
	}
	lastWeek := g.Weeks[len(g.Weeks)-1]
	return Span{Start: g.Weeks[0][0], End: lastWeek[len(lastWeek)-1]}
}

// MonthSpan returns the span of the month itself, without spillover days.
func (g MonthGrid) MonthSpan() Span {
	first := time.Date(g.Year, g.Month, 1, 0, 0, 0, 0, time.UTC)
	return Span{Start: first, End: first.AddDate(0, 1, -1)}
}

// InMonth reports whether day belongs to the grid's month.
func (g MonthGrid) InMonth(day time.Time) bool {
	return day.Year() == g.Year && day.Month() == g.Month
}
