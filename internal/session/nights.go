package session

import (
	"strings"
	"time"
)

// nightShift moves early-morning frames back to the evening the night began
const nightShift = 12 * time.Hour

// dateLayouts are the date_obs forms accepted for night bucketing. Go accepts
// fractional seconds after the seconds field even when the layout omits them.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.DateOnly,
}

// parseDateObs parses a stored date_obs value. Zoned values are converted to UTC.
func parseDateObs(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// NightOf returns the observing night of a date_obs value: the calendar date
// of the observation time minus twelve hours. ok is false when the value
// cannot be parsed.
func NightOf(dateObs string) (night time.Time, ok bool) {
	t, ok := parseDateObs(dateObs)
	if !ok {
		return time.Time{}, false
	}
	shifted := t.Add(-nightShift)
	return time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 0, 0, 0, 0, time.UTC), true
}
