package whatsapp

import "sync"

// AlertTracker remembers the last day a pig was alerted on, so a pig that
// stays High is reported once per day rather than on every observation.
type AlertTracker struct {
	alerted map[string]string
	mu      sync.Mutex
}

// NewAlertTracker creates an empty tracker.
func NewAlertTracker() *AlertTracker {
	return &AlertTracker{
		alerted: make(map[string]string),
	}
}

// TryMark records an alert for pigID on day and reports whether the caller
// claimed it. It returns false when pigID was already alerted on day.
func (t *AlertTracker) TryMark(pigID, day string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.alerted[pigID] == day {
		return false
	}
	t.alerted[pigID] = day
	return true
}

// Release undoes a TryMark for pigID on day, so a failed send can be retried.
func (t *AlertTracker) Release(pigID, day string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.alerted[pigID] == day {
		delete(t.alerted, pigID)
	}
}

// Clear forgets pigID, typically once its risk drops below High.
func (t *AlertTracker) Clear(pigID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.alerted, pigID)
}
