package models

import "time"

// Operating mode codes used by ch_mode and dhw_mode.
const (
	ModeManual    = 1
	ModeAutomatic = 2
	ModeVacation  = 3
	ModeExtend    = 4
	ModeFireplace = 5
)

var modeNames = map[int]string{
	ModeManual:    "manual",
	ModeAutomatic: "automatic",
	ModeVacation:  "vacation",
	ModeExtend:    "extend",
	ModeFireplace: "fireplace",
}

// ModeName maps a mode code to its name, "unknown" for codes outside the table.
func ModeName(code int) string {
	if n, ok := modeNames[code]; ok {
		return n
	}
	return "unknown"
}

// Control is the operating mode and setpoint block. Durations are in seconds.
type Control struct {
	CHStatus          *int     `json:"ch_status,omitempty"`
	CHControlMode     *int     `json:"ch_control_mode,omitempty"`
	CHMode            *int     `json:"ch_mode,omitempty"`
	CHModeName        string   `json:"ch_mode_name,omitempty"`
	CHModeDuration    *int64   `json:"ch_mode_duration,omitempty"`
	CHModeTemp        *float64 `json:"ch_mode_temp,omitempty"`
	DHWTempSetp       *float64 `json:"dhw_temp_setp,omitempty"`
	DHWStatus         *int     `json:"dhw_status,omitempty"`
	DHWMode           *int     `json:"dhw_mode,omitempty"`
	DHWModeName       string   `json:"dhw_mode_name,omitempty"`
	DHWModeTemp       *float64 `json:"dhw_mode_temp,omitempty"`
	WeatherTemp       *float64 `json:"weather_temp,omitempty"`
	WeatherStatus     *int     `json:"weather_status,omitempty"`
	VacationDuration  *int64   `json:"vacation_duration,omitempty"`
	ExtendDuration    *int64   `json:"extend_duration,omitempty"`
	FireplaceDuration *int64   `json:"fireplace_duration,omitempty"`
}

// Seconds converts an optional seconds field to a duration; nil yields zero.
func Seconds(v *int64) time.Duration {
	if v == nil {
		return 0
	}
	return time.Duration(*v) * time.Second
}
