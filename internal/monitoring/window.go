// Package monitoring decides when a new observation may be recorded.
//
// A monitoring day opens at the configured start time and lasts twelve
// hours. It allows at most two checks: the first anywhere in the day, the
// second no earlier than seven hours after the start and at least four hours
// after the first. The day boundary is the start time, not midnight.
package monitoring

import (
	"fmt"
	"time"

	// Pinned zones must resolve on hosts without a system zoneinfo database.
	_ "time/tzdata"

	"github.com/mamadbah2/swinewatch/internal/domain/models"
)

const (
	// DefaultStartTime is used when no start time has been configured.
	DefaultStartTime = "08:00"
	// DefaultTimezone anchors every day-boundary computation.
	DefaultTimezone = "Asia/Singapore"

	dayLength          = 12 * time.Hour
	secondWindowOffset = 7 * time.Hour
	minimumGap         = 4 * time.Hour
)

// Window is the daily monitoring schedule in a fixed time zone.
type Window struct {
	Start    ClockTime
	Location *time.Location
}

// NewWindow builds a window from an "HH:mm" start time and an IANA zone name.
func NewWindow(startTime, timezone string) (Window, error) {
	start, err := ParseClock(startTime)
	if err != nil {
		return Window{}, err
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Window{}, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return Window{Start: start, Location: loc}, nil
}

// WithStart returns a copy of w opening at start.
func (w Window) WithStart(start ClockTime) Window {
	w.Start = start
	return w
}

// SecondWindow returns the time of day the second check window opens.
func (w Window) SecondWindow() ClockTime {
	minutes := int(w.Start) + int(secondWindowOffset/time.Minute)
	return ClockTime(minutes % (24 * 60))
}

func (w Window) location() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}

// DayStart returns the opening instant of the monitoring day that contains
// now, or of the next one when now falls between two days. A day that runs
// past midnight still belongs to the date it opened on.
func (w Window) DayStart(now time.Time) time.Time {
	loc := w.location()
	now = now.In(loc)

	start := w.Start.On(now, loc)
	if now.Before(start) {
		previous := start.AddDate(0, 0, -1)
		if now.Before(previous.Add(dayLength)) {
			return previous
		}
	}
	return start
}

// LastCheckToday picks the latest of recordedAt that falls inside the
// current monitoring day and not after now. It returns nil when there is none.
func (w Window) LastCheckToday(now time.Time, recordedAt []time.Time) *ClockTime {
	start := w.DayStart(now)
	if now.Before(start) {
		return nil
	}

	var latest time.Time
	found := false
	for _, t := range recordedAt {
		if t.Before(start) || t.After(now) {
			continue
		}
		if !found || t.After(latest) {
			latest = t
			found = true
		}
	}
	if !found {
		return nil
	}

	clock := ClockOf(latest.In(w.location()))
	return &clock
}

// Evaluate reports whether a check is allowed at now given the time of the
// last check of the current monitoring day, if any.
func (w Window) Evaluate(now time.Time, lastCheckedToday *ClockTime) models.MonitoringTiming {
	loc := w.location()
	now = now.In(loc)

	start := w.DayStart(now)
	end := start.Add(dayLength)
	tomorrow := start.AddDate(0, 0, 1)

	if now.Before(start) {
		return closed(models.StateBeforeWindow, now, start)
	}
	if !now.Before(end) {
		return closed(models.StateAfterDayEnd, now, tomorrow)
	}
	if lastCheckedToday == nil {
		return open(models.StateFirstWindowOpen, now)
	}

	last := lastCheckedToday.On(start, loc)
	if last.Before(start) {
		last = last.AddDate(0, 0, 1)
	}

	secondWindow := start.Add(secondWindowOffset)
	if !last.Before(secondWindow) {
		return closed(models.StateAfterDayEnd, now, tomorrow)
	}

	nextAllowed := last.Add(minimumGap)
	if nextAllowed.Before(secondWindow) {
		nextAllowed = secondWindow
	}

	switch {
	case !nextAllowed.Before(end):
		return closed(models.StateAfterDayEnd, now, tomorrow)
	case now.Before(nextAllowed):
		return closed(models.StateAwaitingSecondWindow, now, nextAllowed)
	default:
		return open(models.StateSecondWindowOpen, now)
	}
}

func open(state models.MonitoringState, now time.Time) models.MonitoringTiming {
	return models.MonitoringTiming{
		State:              state,
		CanMonitor:         true,
		NextMonitoringTime: ClockOf(now).String(),
		NextMonitoringAt:   now,
	}
}

func closed(state models.MonitoringState, now, next time.Time) models.MonitoringTiming {
	remaining := next.Sub(now)
	return models.MonitoringTiming{
		State:              state,
		NextMonitoringTime: ClockOf(next).String(),
		NextMonitoringAt:   next,
		TimeRemaining:      &remaining,
	}
}
