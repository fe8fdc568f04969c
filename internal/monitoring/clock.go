package monitoring

import (
	"fmt"
	"time"
)

const clockLayout = "15:04"

// ClockTime is a time of day expressed in minutes after midnight.
type ClockTime int

// ParseClock parses an "HH:mm" string.
func ParseClock(value string) (ClockTime, error) {
	t, err := time.Parse(clockLayout, value)
	if err != nil {
		return 0, fmt.Errorf("parse clock time %q: %w", value, err)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

// ClockOf returns the time of day of t in its own location.
func ClockOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*60 + t.Minute())
}

// On returns the instant at c on the calendar day of day, in loc.
func (c ClockTime) On(day time.Time, loc *time.Location) time.Time {
	day = day.In(loc)
	return time.Date(day.Year(), day.Month(), day.Day(), int(c)/60, int(c)%60, 0, 0, loc)
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}
