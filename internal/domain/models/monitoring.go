package models

import "time"

// MonitoringState names where "now" falls in the monitoring day.
type MonitoringState string

const (
	StateBeforeWindow         MonitoringState = "before_window"
	StateAfterDayEnd          MonitoringState = "after_day_end"
	StateFirstWindowOpen      MonitoringState = "first_window_open"
	StateAwaitingSecondWindow MonitoringState = "awaiting_second_window"
	StateSecondWindowOpen     MonitoringState = "second_window_open"
)

// MonitoringTiming tells the caller whether a new observation may be recorded now.
type MonitoringTiming struct {
	State              MonitoringState `json:"state"`
	CanMonitor         bool            `json:"can_monitor"`
	NextMonitoringTime string          `json:"next_monitoring_time"`
	NextMonitoringAt   time.Time       `json:"next_monitoring_at"`
	TimeRemaining      *time.Duration  `json:"time_remaining,omitempty"`
}
