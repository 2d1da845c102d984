package models

import "time"

// CollectorStatus is a point-in-time view of one device's collector loop.
type CollectorStatus struct {
	DeviceID            string    `json:"device_id"`
	State               string    `json:"state"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastAttempt         time.Time `json:"last_attempt,omitempty"`
	LastSuccess         time.Time `json:"last_success,omitempty"`
	LastError           string    `json:"last_error,omitempty"`
	NextAttempt         time.Time `json:"next_attempt,omitempty"`
	PendingWrites       int       `json:"pending_writes"`
}
