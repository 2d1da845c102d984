package models

// Report holds the continuous sensor readings of one poll.
// A nil pointer means the firmware does not report the value.
type Report struct {
	ReportTime   int64    `json:"report_time"` // device seconds, device epoch
	BurningHours *float64 `json:"burning_hours,omitempty"`
	DeviceErrors []string `json:"device_errors,omitempty"`
	BoilerErrors []string `json:"boiler_errors,omitempty"`

	RoomTemp       *float64 `json:"room_temp,omitempty"`
	OutsideTemp    *float64 `json:"outside_temp,omitempty"`
	DbgOutsideTemp *float64 `json:"dbg_outside_temp,omitempty"`
	PCBTemp        *float64 `json:"pcb_temp,omitempty"`
	CHSetpoint     *float64 `json:"ch_setpoint,omitempty"`
	DHWWaterTemp   *float64 `json:"dhw_water_temp,omitempty"`
	CHWaterTemp    *float64 `json:"ch_water_temp,omitempty"`
	DHWWaterPres   *float64 `json:"dhw_water_pres,omitempty"` // bar
	CHWaterPres    *float64 `json:"ch_water_pres,omitempty"`  // bar
	CHReturnTemp   *float64 `json:"ch_return_temp,omitempty"`
	ShownSetTemp   *float64 `json:"shown_set_temp,omitempty"`
	PowerCons      *float64 `json:"power_cons,omitempty"`

	BoilerStatus *int        `json:"boiler_status,omitempty"`
	BoilerConfig *int        `json:"boiler_config,omitempty"`
	BoilerFlags  StatusFlags `json:"boiler_flags,omitempty"`

	CHTimeToTemp     *int `json:"ch_time_to_temp,omitempty"`
	RSSI             *int `json:"rssi,omitempty"`
	Current          *int `json:"current,omitempty"`
	Voltage          *int `json:"voltage,omitempty"`
	Resets           *int `json:"resets,omitempty"`
	MemoryAllocation *int `json:"memory_allocation,omitempty"`

	Details *Details `json:"details,omitempty"`
}

// Details is the extended diagnostics block only some firmware versions send.
type Details struct {
	BoilerTemp       *float64 `json:"boiler_temp,omitempty"`
	BoilerReturnTemp *float64 `json:"boiler_return_temp,omitempty"`
	MinModLevel      *float64 `json:"min_mod_level,omitempty"`
	RelModLevel      *float64 `json:"rel_mod_level,omitempty"`
	BoilerCapacity   *float64 `json:"boiler_capacity,omitempty"`
	TargetTemp       *float64 `json:"target_temp,omitempty"`
	Overshoot        *float64 `json:"overshoot,omitempty"`
	MaxBoilerTemp    *float64 `json:"max_boiler_temp,omitempty"`
	AlphaUsed        *float64 `json:"alpha_used,omitempty"`
	RegulationState  *int     `json:"regulation_state,omitempty"`
	FlameStatus      *int     `json:"flame_status,omitempty"`
}
