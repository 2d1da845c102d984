package payload

import "boiler_collector/internal/models"

// envelope is the top-level document returned by the device.
type envelope struct {
	RetrieveReply *RawSnapshot `json:"retrieve_reply"`
}

// RawSnapshot is the typed, not yet validated retrieve reply.
type RawSnapshot struct {
	SeqNr         *int                  `json:"seqnr"`
	Status        *RawStatus            `json:"status"`
	Report        *RawReport            `json:"report"`
	Control       *models.Control       `json:"control"`
	Schedules     *RawSchedules         `json:"schedules"`
	Configuration *models.Configuration `json:"configuration"`
	AccStatus     *int                  `json:"acc_status"`
	WifiScan      *models.WifiScan      `json:"wifi_scan"`
}

// RawStatus is the status section.
type RawStatus struct {
	DeviceID         *string `json:"device_id"`
	DeviceStatus     *int    `json:"device_status"`
	ConnectionStatus *int    `json:"connection_status"`
	DateTime         *int64  `json:"date_time"`
}

// RawReport is the report section; device_errors and boiler_errors are
// comma separated code lists, empty when healthy.
type RawReport struct {
	ReportTime       *int64          `json:"report_time"`
	BurningHours     *float64        `json:"burning_hours"`
	DeviceErrors     *string         `json:"device_errors"`
	BoilerErrors     *string         `json:"boiler_errors"`
	RoomTemp         *float64        `json:"room_temp"`
	OutsideTemp      *float64        `json:"outside_temp"`
	DbgOutsideTemp   *float64        `json:"dbg_outside_temp"`
	PCBTemp          *float64        `json:"pcb_temp"`
	CHSetpoint       *float64        `json:"ch_setpoint"`
	DHWWaterTemp     *float64        `json:"dhw_water_temp"`
	CHWaterTemp      *float64        `json:"ch_water_temp"`
	DHWWaterPres     *float64        `json:"dhw_water_pres"`
	CHWaterPres      *float64        `json:"ch_water_pres"`
	CHReturnTemp     *float64        `json:"ch_return_temp"`
	BoilerStatus     *int            `json:"boiler_status"`
	BoilerConfig     *int            `json:"boiler_config"`
	CHTimeToTemp     *int            `json:"ch_time_to_temp"`
	ShownSetTemp     *float64        `json:"shown_set_temp"`
	PowerCons        *float64        `json:"power_cons"`
	RSSI             *int            `json:"rssi"`
	Current          *int            `json:"current"`
	Voltage          *int            `json:"voltage"`
	Resets           *int            `json:"resets"`
	MemoryAllocation *int            `json:"memory_allocation"`
	Details          *models.Details `json:"details"`
}

// RawSchedules holds both weekly programs.
type RawSchedules struct {
	CH  *RawSchedule `json:"ch_schedule"`
	DHW *RawSchedule `json:"dhw_schedule"`
}

// RawSchedule is {base_temp, entries: [weekday][entry][start, end, temp]}.
type RawSchedule struct {
	BaseTemp *float64      `json:"base_temp"`
	Entries  [][][]float64 `json:"entries"`
}

// sensorReadings lists the report values counted as sensor readings.
func (r *RawReport) sensorReadings() []*float64 {
	return []*float64{
		r.BurningHours, r.RoomTemp, r.OutsideTemp, r.DbgOutsideTemp, r.PCBTemp,
		r.CHSetpoint, r.DHWWaterTemp, r.CHWaterTemp, r.DHWWaterPres, r.CHWaterPres,
		r.CHReturnTemp, r.ShownSetTemp, r.PowerCons,
	}
}

// HasSensorReading reports whether at least one sensor value is present.
func (r *RawReport) HasSensorReading() bool {
	if r == nil {
		return false
	}
	for _, v := range r.sensorReadings() {
		if v != nil {
			return true
		}
	}
	return false
}

// DeviceID returns the device id or "" when absent.
func (s *RawSnapshot) DeviceID() string {
	if s.Status == nil || s.Status.DeviceID == nil {
		return ""
	}
	return *s.Status.DeviceID
}

// Timestamp returns report.report_time, falling back to status.date_time.
func (s *RawSnapshot) Timestamp() (int64, bool) {
	if s.Report != nil && s.Report.ReportTime != nil {
		return *s.Report.ReportTime, true
	}
	if s.Status != nil && s.Status.DateTime != nil {
		return *s.Status.DateTime, true
	}
	return 0, false
}
