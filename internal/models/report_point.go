package models

import "time"

// ReportPoint is the columnar view of a stored report: every Report reading
// except the nested Details block.
type ReportPoint struct {
	ReportTime int64     `json:"report_time"`
	DeviceTime time.Time `json:"device_time"`

	BurningHours   *float64 `json:"burning_hours,omitempty"`
	RoomTemp       *float64 `json:"room_temp,omitempty"`
	OutsideTemp    *float64 `json:"outside_temp,omitempty"`
	DbgOutsideTemp *float64 `json:"dbg_outside_temp,omitempty"`
	PCBTemp        *float64 `json:"pcb_temp,omitempty"`
	CHSetpoint     *float64 `json:"ch_setpoint,omitempty"`
	DHWWaterTemp   *float64 `json:"dhw_water_temp,omitempty"`
	CHWaterTemp    *float64 `json:"ch_water_temp,omitempty"`
	DHWWaterPres   *float64 `json:"dhw_water_pres,omitempty"`
	CHWaterPres    *float64 `json:"ch_water_pres,omitempty"`
	CHReturnTemp   *float64 `json:"ch_return_temp,omitempty"`
	ShownSetTemp   *float64 `json:"shown_set_temp,omitempty"`
	PowerCons      *float64 `json:"power_cons,omitempty"`

	BoilerStatus     *int `json:"boiler_status,omitempty"`
	BoilerConfig     *int `json:"boiler_config,omitempty"`
	CHTimeToTemp     *int `json:"ch_time_to_temp,omitempty"`
	RSSI             *int `json:"rssi,omitempty"`
	Current          *int `json:"current,omitempty"`
	Voltage          *int `json:"voltage,omitempty"`
	Resets           *int `json:"resets,omitempty"`
	MemoryAllocation *int `json:"memory_allocation,omitempty"`

	DeviceErrors []string `json:"device_errors,omitempty"`
	BoilerErrors []string `json:"boiler_errors,omitempty"`

	FlameOn  bool `json:"flame_on"`
	Warnings int  `json:"warnings"`
}

// DeviceSummary describes one device seen in the report table.
type DeviceSummary struct {
	DeviceID       string    `json:"device_id"`
	Reports        int       `json:"reports"`
	LastReportTime int64     `json:"last_report_time"`
	LastDeviceTime time.Time `json:"last_device_time"`
}

// EventFilter narrows an event log query. Zero values match everything.
type EventFilter struct {
	From     time.Time
	To       time.Time
	Type     string
	DeviceID string
}
