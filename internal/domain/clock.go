package domain

import (
	"fmt"
	"time"
)

// ParseClock parses a local wall-clock "HH:MM" string.
func ParseClock(s string) (hour, minute int, err error) {
	if _, e := fmt.Sscanf(s, "%d:%d", &hour, &minute); e != nil {
		return 0, 0, fmt.Errorf("parse clock %q: %w", s, ErrBadClock)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("parse clock %q: %w", s, ErrBadClock)
	}
	return hour, minute, nil
}

// CombineClock places a wall-clock "HH:MM" string on the given date,
// keeping the date's location.
func CombineClock(date time.Time, clock string) (time.Time, error) {
	h, m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, date.Location()), nil
}
