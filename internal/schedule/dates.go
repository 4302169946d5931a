package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the persisted calendar date format.
const DateLayout = "2006-01-02"

// Input layouts accept unpadded months and days as well as padded ones.
const (
	isoInputLayout = "2006-1-2"
	usInputLayout  = "1/2/2006"
)

// ErrTimeOrder indicates an end time that does not come after the start time.
var ErrTimeOrder = errors.New("schedule: end time must be after start time")

// ParseDate accepts ISO (YYYY-MM-DD) or US (MM/DD/YYYY) dates. Blank or
// unparsable input reports false; it is never an error.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{isoInputLayout, usInputLayout} {
		if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a date in the persisted format.
func FormatDate(day time.Time) string {
	return day.Format(DateLayout)
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeTime canonicalizes loose hour input to HH:MM. "9" and "09" become
// "09:00"; "9:30" becomes "09:30". Blank or invalid input reports false.
func NormalizeTime(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if isDigits(raw) {
		hour, err := strconv.Atoi(raw)
		if err != nil {
			return "", false
		}
		return fmt.Sprintf("%02d:00", hour), true
	}
	hourPart, minutePart, found := strings.Cut(raw, ":")
	if !found {
		return "", false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(hourPart))
	if err != nil {
		return "", false
	}
	minute, err := strconv.Atoi(strings.TrimSpace(minutePart))
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

// DeriveTimeRange builds the compact "H-H" badge label from two normalized
// times. Minutes are dropped.
func DeriveTimeRange(start, end string) (string, bool) {
	if start == "" || end == "" {
		return "", false
	}
	startHour, ok := hourOf(start)
	if !ok {
		return "", false
	}
	endHour, ok := hourOf(end)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%d-%d", startHour, endHour), true
}

// CheckTimeOrder rejects an end time at or before the start time. Both values
// must already be normalized; a missing side is accepted.
func CheckTimeOrder(start, end string) error {
	if start != "" && end != "" && end <= start {
		return ErrTimeOrder
	}
	return nil
}

// ExpandDays lists every date from start through end inclusive. A zero end
// means the single start day.
func ExpandDays(start, end time.Time) []time.Time {
	return NewSpan(start, end).Days()
}

func hourOf(hhmm string) (int, bool) {
	hourPart, _, _ := strings.Cut(hhmm, ":")
	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, false
	}
	return hour, true
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return value != ""
}
