package models

import "time"

// Warning codes attached to ValidationWarning.
const (
	WarnOutOfRange        = "out_of_range"
	WarnSetpointLimits    = "setpoint_outside_limits"
	WarnClockReset        = "clock_reset"
	WarnTimestampRange    = "timestamp_out_of_range"
	WarnScheduleOverlap   = "schedule_overlap"
	WarnScheduleMalformed = "schedule_malformed"
	WarnScheduleDays      = "schedule_days"
	WarnUnknownStatusBits = "unknown_status_bits"
	WarnUnknownFirmware   = "unknown_firmware"
)

// ValidationWarning is a recoverable, field-level issue found during normalization.
type ValidationWarning struct {
	Field   string   `json:"field"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Value   *float64 `json:"value,omitempty"`
}

// ActiveSchedule is the scheduled target for the snapshot's evaluation time.
// Index is the matched entry within the weekday, -1 when the base temperature applies.
type ActiveSchedule struct {
	CHTemp   *float64 `json:"ch_temp,omitempty"`
	CHIndex  int      `json:"ch_index"`
	DHWTemp  *float64 `json:"dhw_temp,omitempty"`
	DHWIndex int      `json:"dhw_index"`
	Weekday  int      `json:"weekday"`
	Minute   int      `json:"minute"`
}

// Snapshot is one normalized, immutable capture of device state.
type Snapshot struct {
	DeviceID    string              `json:"device_id"`
	ReportTime  int64               `json:"report_time"`
	DeviceTime  time.Time           `json:"device_time"`
	CollectedAt time.Time           `json:"collected_at"`
	Status      DeviceStatus        `json:"status"`
	Report      Report              `json:"report"`
	Control     *Control            `json:"control,omitempty"`
	Schedule    *ActiveSchedule     `json:"active_schedule,omitempty"`
	AccStatus   *int                `json:"acc_status,omitempty"`
	WifiScan    *WifiScan           `json:"wifi_scan,omitempty"`
	Warnings    []ValidationWarning `json:"warnings,omitempty"`
}

// ConfigSnapshot is the latest configuration and schedules of a device,
// replaced wholesale whenever Hash changes.
type ConfigSnapshot struct {
	DeviceID      string         `json:"device_id"`
	Configuration *Configuration `json:"configuration,omitempty"`
	Schedules     ScheduleSet    `json:"schedules"`
	Hash          string         `json:"hash"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
