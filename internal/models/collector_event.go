package models

import "time"

// Collector event types.
const (
	EventStarted        = "STARTED"
	EventStopped        = "STOPPED"
	EventPollFailed     = "POLL_FAILED"
	EventStorageFailed  = "STORAGE_FAILED"
	EventBackoff        = "BACKOFF"
	EventRecovered      = "RECOVERED"
	EventClockReset     = "CLOCK_RESET"
	EventWarning        = "WARNING"
	EventConfigChanged  = "CONFIG_CHANGED"
	EventDuplicate      = "DUPLICATE"
	EventPendingDropped = "PENDING_DROPPED"
)

// CollectorEvent is a single event log entry.
type CollectorEvent struct {
	EventID     string    `json:"event_id"`
	DeviceID    string    `json:"device_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // STARTED | POLL_FAILED | BACKOFF | ...
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
