package holiday

import (
	"time"

	"github.com/rickar/cal/v2"
)

// leeJacksonDay was observed on the Friday before the third Monday in January
// until Virginia retired it in 2020.
var leeJacksonDay = &cal.Holiday{
	Name:      "Lee Jackson Day",
	Type:      cal.ObservancePublic,
	StartYear: 2000,
	EndYear:   2019,
	Func: func(_ *cal.Holiday, year int) time.Time {
		return nthWeekday(year, time.January, time.Monday, 3).AddDate(0, 0, -3)
	},
}

// inaugurationDay falls on January 20 after a presidential election, moving to
// January 21 when the 20th is a Sunday.
var inaugurationDay = &cal.Holiday{
	Name:      "Inauguration Day",
	Type:      cal.ObservancePublic,
	StartYear: 1937,
	Func: func(_ *cal.Holiday, year int) time.Time {
		if (year-1937)%4 != 0 {
			return time.Time{}
		}
		day := time.Date(year, time.January, 20, 0, 0, 0, 0, time.UTC)
		if day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)
		}
		return day
	},
}

// electionDay is the Tuesday after the first Monday in November, a Virginia
// state holiday since 2020.
var electionDay = &cal.Holiday{
	Name:      "Election Day",
	Type:      cal.ObservancePublic,
	StartYear: 2020,
	Func: func(_ *cal.Holiday, year int) time.Time {
		return nthWeekday(year, time.November, time.Monday, 1).AddDate(0, 0, 1)
	},
}

func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+7*(n-1))
}
