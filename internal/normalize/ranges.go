package normalize

import (
	"fmt"

	"boiler_collector/internal/models"
)

// Plausible physical bounds.
const (
	MinTemp     = -50.0
	MaxTemp     = 120.0
	MinPressure = 0.0
	MaxPressure = 10.0
	MinPercent  = 0.0
	MaxPercent  = 100.0
)

type bounds struct {
	min, max float64
	unit     string
}

var (
	tempBounds     = bounds{MinTemp, MaxTemp, "°C"}
	pressureBounds = bounds{MinPressure, MaxPressure, "bar"}
	percentBounds  = bounds{MinPercent, MaxPercent, "%"}
)

// warnings accumulates validation findings for one snapshot.
type warnings []models.ValidationWarning

func (w *warnings) add(field, code, msg string, value *float64) {
	var v *float64
	if value != nil {
		c := *value
		v = &c
	}
	*w = append(*w, models.ValidationWarning{Field: field, Code: code, Message: msg, Value: v})
}

// checkRange flags a value outside b. The value itself is kept.
func (w *warnings) checkRange(field string, value *float64, b bounds) {
	if value == nil {
		return
	}
	if *value < b.min || *value > b.max {
		w.add(field, models.WarnOutOfRange,
			fmt.Sprintf("%g %s outside [%g, %g]", *value, b.unit, b.min, b.max), value)
	}
}

func (w *warnings) checkNonNegative(field string, value *float64) {
	if value != nil && *value < 0 {
		w.add(field, models.WarnOutOfRange, fmt.Sprintf("%g is negative", *value), value)
	}
}

func (w *warnings) checkNonNegativeInt(field string, value *int) {
	if value == nil {
		return
	}
	f := float64(*value)
	w.checkNonNegative(field, &f)
}

// checkSetpoint flags value outside [lo, hi] when both bounds are configured and lo < hi.
func (w *warnings) checkSetpoint(field string, value, lo, hi *float64) {
	if value == nil || lo == nil || hi == nil || *lo >= *hi {
		return
	}
	if *value < *lo || *value > *hi {
		w.add(field, models.WarnSetpointLimits,
			fmt.Sprintf("%g outside configured limits [%g, %g]", *value, *lo, *hi), value)
	}
}

func (w *warnings) checkReport(r *models.Report) {
	for _, f := range []struct {
		name  string
		value *float64
	}{
		{"report.room_temp", r.RoomTemp},
		{"report.outside_temp", r.OutsideTemp},
		{"report.dbg_outside_temp", r.DbgOutsideTemp},
		{"report.pcb_temp", r.PCBTemp},
		{"report.ch_setpoint", r.CHSetpoint},
		{"report.dhw_water_temp", r.DHWWaterTemp},
		{"report.ch_water_temp", r.CHWaterTemp},
		{"report.ch_return_temp", r.CHReturnTemp},
		{"report.shown_set_temp", r.ShownSetTemp},
	} {
		w.checkRange(f.name, f.value, tempBounds)
	}
	w.checkRange("report.dhw_water_pres", r.DHWWaterPres, pressureBounds)
	w.checkRange("report.ch_water_pres", r.CHWaterPres, pressureBounds)

	w.checkNonNegative("report.burning_hours", r.BurningHours)
	w.checkNonNegative("report.power_cons", r.PowerCons)
	w.checkNonNegativeInt("report.ch_time_to_temp", r.CHTimeToTemp)
	w.checkNonNegativeInt("report.resets", r.Resets)
	w.checkNonNegativeInt("report.memory_allocation", r.MemoryAllocation)

	if d := r.Details; d != nil {
		w.checkRange("report.details.boiler_temp", d.BoilerTemp, tempBounds)
		w.checkRange("report.details.boiler_return_temp", d.BoilerReturnTemp, tempBounds)
		w.checkRange("report.details.target_temp", d.TargetTemp, tempBounds)
		w.checkRange("report.details.max_boiler_temp", d.MaxBoilerTemp, tempBounds)
		w.checkRange("report.details.min_mod_level", d.MinModLevel, percentBounds)
		w.checkRange("report.details.rel_mod_level", d.RelModLevel, percentBounds)
		w.checkNonNegative("report.details.boiler_capacity", d.BoilerCapacity)
	}
}

func (w *warnings) checkControl(c *models.Control) {
	w.checkRange("control.ch_mode_temp", c.CHModeTemp, tempBounds)
	w.checkRange("control.dhw_temp_setp", c.DHWTempSetp, tempBounds)
	w.checkRange("control.dhw_mode_temp", c.DHWModeTemp, tempBounds)
	w.checkRange("control.weather_temp", c.WeatherTemp, tempBounds)
	for _, d := range []struct {
		name  string
		value *int64
	}{
		{"control.ch_mode_duration", c.CHModeDuration},
		{"control.vacation_duration", c.VacationDuration},
		{"control.extend_duration", c.ExtendDuration},
		{"control.fireplace_duration", c.FireplaceDuration},
	} {
		if d.value != nil && *d.value < 0 {
			f := float64(*d.value)
			w.checkNonNegative(d.name, &f)
		}
	}
}

func (w *warnings) checkLimits(r *models.Report, c *models.Control, cfg *models.Configuration) {
	if cfg == nil {
		return
	}
	w.checkSetpoint("report.ch_setpoint", r.CHSetpoint, cfg.CHMinSet, cfg.CHMaxSet)
	if c != nil {
		w.checkSetpoint("control.dhw_temp_setp", c.DHWTempSetp, cfg.DHWMinSet, cfg.DHWMaxSet)
	}
}
