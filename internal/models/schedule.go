package models

import "time"

// DaysPerWeek is the number of weekday slots in a schedule, Monday first.
const DaysPerWeek = 7

// MinutesPerDay bounds schedule entry minutes.
const MinutesPerDay = 24 * 60

// ScheduleEntry is one [start, end) interval with its target temperature.
type ScheduleEntry struct {
	StartMinute int     `json:"start_minute"`
	EndMinute   int     `json:"end_minute"`
	Temp        float64 `json:"temp"`
}

// Contains reports whether minute falls in [StartMinute, EndMinute).
func (e ScheduleEntry) Contains(minute int) bool {
	return e.StartMinute <= minute && minute < e.EndMinute
}

// Schedule is a weekly program; Days[0] is Monday.
type Schedule struct {
	BaseTemp float64                      `json:"base_temp"`
	Days     [DaysPerWeek][]ScheduleEntry `json:"days"`
}

// ScheduleSet groups the central heating and hot water programs.
type ScheduleSet struct {
	CH  *Schedule `json:"ch_schedule,omitempty"`
	DHW *Schedule `json:"dhw_schedule,omitempty"`
}

// WeekdayIndex maps time.Weekday (Sunday=0) to the schedule index (Monday=0).
func WeekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % DaysPerWeek
}

// MinuteOfDay returns minutes since local midnight of t.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
