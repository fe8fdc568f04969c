package health

import (
	"errors"
	"fmt"

	"github.com/mamadbah2/swinewatch/internal/domain/models"
)

var (
	// ErrPigNotFound indicates the pig id is unknown.
	ErrPigNotFound = errors.New("pig not found")
	// ErrBreedNotFound indicates a pig references a breed that is not registered.
	ErrBreedNotFound = errors.New("breed not found")
	// ErrUnknownSymptom indicates a symptom id missing from the checklist catalog.
	ErrUnknownSymptom = errors.New("unknown symptom")
	// ErrInvalidTemperature indicates a reading outside the plausible range.
	ErrInvalidTemperature = errors.New("temperature out of range")
	// ErrInvalidInput indicates a malformed pig, breed or checklist item.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMonitoringClosed indicates no observation may be recorded right now.
	ErrMonitoringClosed = errors.New("monitoring window closed")
)

// MonitoringClosedError carries the timing that refused an observation.
type MonitoringClosedError struct {
	Timing models.MonitoringTiming
}

func (e *MonitoringClosedError) Error() string {
	return fmt.Sprintf("%s: %s, next window at %s", ErrMonitoringClosed, e.Timing.State, e.Timing.NextMonitoringTime)
}

func (e *MonitoringClosedError) Is(target error) bool {
	return target == ErrMonitoringClosed
}
