package utils

import (
	"fmt"
	"time"
)

// ParseRFC3339 returns a time from the provided string or an error.
func ParseRFC3339(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time: %w", err)
	}
	return t, nil
}

// ObservationWindow converts a relative lookback into an absolute window,
// ending publishDelay before now so not-yet-published imagery is never
// requested.
func ObservationWindow(now time.Time, lookback, publishDelay time.Duration) (time.Time, time.Time) {
	end := now.Add(-publishDelay)
	start := end.Add(-lookback)
	return start, end
}

// ExtendWindow widens a window backwards by extra. Precipitation products
// publish later than optical ones and occasionally need one extension.
func ExtendWindow(start, end time.Time, extra time.Duration) (time.Time, time.Time) {
	return start.Add(-extra), end
}

// DaysBetween returns the number of whole elapsed days from start to end,
// never less than one.
func DaysBetween(start, end time.Time) int {
	if end.Before(start) {
		start, end = end, start
	}
	days := int(end.Sub(start).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days
}

// DayKey truncates a timestamp to its UTC calendar day.
func DayKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
