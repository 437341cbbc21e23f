package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted from callers.
const DateLayout = "2006-01-02"

// StampDate combines a caller supplied calendar date with the time of day of clock,
// in clock's location, so records entered on the same day keep their capture order.
// An empty value means the day of clock itself.
func StampDate(value string, clock time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return clock, nil
	}

	day, err := time.ParseInLocation(DateLayout, value, clock.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must use %s", ErrInvalidInput, value, DateLayout)
	}

	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), clock.Location()), nil
}
