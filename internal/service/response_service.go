package service

import "time"

// LogFilter supports history filtering by time range, type and device.
type LogFilter struct {
	From     time.Time // inclusive; zero means no lower bound
	To       time.Time // inclusive; zero means no upper bound
	Type     string    // "", "POLL_FAILED", "BACKOFF", "CLOCK_RESET", ...
	DeviceID string    // "" means every device
}

// ReportQuery selects a range of stored reports by device time.
type ReportQuery struct {
	From  time.Time // inclusive; zero means no lower bound
	To    time.Time // inclusive; zero means no upper bound
	Limit int       // <= 0 means the repository default
}
