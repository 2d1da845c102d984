package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"boiler_collector/internal/models"
	"boiler_collector/internal/payload"
)

// Context carries what normalization needs beyond the payload itself.
type Context struct {
	// Now is the wall-clock collection time.
	Now time.Time
	// Previous is the last accepted report time of the device, if any.
	Previous *int64
}

// Normalizer maps raw snapshots into validated domain snapshots.
// It is stateless and safe for concurrent use.
type Normalizer struct {
	generation string
	loc        *time.Location
}

// New builds a normalizer. generation is "auto", "r1" or "r4"; a nil loc means UTC.
func New(generation string, loc *time.Location) (*Normalizer, error) {
	if generation == "" {
		generation = GenerationAuto
	}
	if generation != GenerationAuto {
		if _, err := TableFor(generation); err != nil {
			return nil, err
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{generation: generation, loc: loc}, nil
}

// Normalize validates raw and returns the snapshot with its warnings attached.
// Only a blank device id is an error; every other problem becomes a warning.
func (n *Normalizer) Normalize(raw *payload.RawSnapshot, nc Context) (models.Snapshot, error) {
	if raw == nil {
		return models.Snapshot{}, &NormalizationError{Field: "retrieve_reply", Reason: "nil snapshot"}
	}
	deviceID := strings.TrimSpace(raw.DeviceID())
	if deviceID == "" {
		return models.Snapshot{}, &NormalizationError{Field: "status.device_id", Reason: "blank device id"}
	}
	reportTime, ok := raw.Timestamp()
	if !ok {
		return models.Snapshot{}, &NormalizationError{Field: "report.report_time", Reason: "no timestamp"}
	}

	var w warnings
	if !PlausibleDeviceSeconds(reportTime) {
		v := float64(reportTime)
		w.add("report.report_time", models.WarnTimestampRange,
			fmt.Sprintf("report time %d is outside %s..%s", reportTime,
				DeviceEpoch.Format(time.DateOnly), plausibleUntil.Format(time.DateOnly)), &v)
	}
	table := n.table(raw.Configuration, &w)

	snap := models.Snapshot{
		DeviceID:    deviceID,
		ReportTime:  reportTime,
		DeviceTime:  DeviceTime(reportTime),
		CollectedAt: nc.Now,
		AccStatus:   raw.AccStatus,
		WifiScan:    raw.WifiScan,
	}
	snap.Status = n.status(deviceID, raw.Status, table, &w)
	snap.Report = n.report(reportTime, raw.Report, table, &w)
	w.checkReport(&snap.Report)

	if raw.Control != nil {
		c := *raw.Control
		if c.CHMode != nil {
			c.CHModeName = models.ModeName(*c.CHMode)
		}
		if c.DHWMode != nil {
			c.DHWModeName = models.ModeName(*c.DHWMode)
		}
		w.checkControl(&c)
		snap.Control = &c
	}
	w.checkLimits(&snap.Report, snap.Control, raw.Configuration)

	if raw.Schedules != nil {
		set := n.schedules(raw.Schedules, &w)
		snap.Schedule = n.activeSchedule(set, snap.DeviceTime)
	}

	if nc.Previous != nil && *nc.Previous > reportTime {
		prev := float64(*nc.Previous)
		w.add("report.report_time", models.WarnClockReset,
			fmt.Sprintf("device time went back from %d to %d", *nc.Previous, reportTime), &prev)
	}

	snap.Warnings = w
	return snap, nil
}

// ConfigSnapshot extracts the configuration and schedules with a content hash.
// Schedule warnings are reported by Normalize, not here.
func (n *Normalizer) ConfigSnapshot(raw *payload.RawSnapshot, now time.Time) (models.ConfigSnapshot, error) {
	deviceID := strings.TrimSpace(raw.DeviceID())
	if deviceID == "" {
		return models.ConfigSnapshot{}, &NormalizationError{Field: "status.device_id", Reason: "blank device id"}
	}
	cs := models.ConfigSnapshot{
		DeviceID:      deviceID,
		Configuration: raw.Configuration,
		UpdatedAt:     now,
	}
	if raw.Schedules != nil {
		var discard warnings
		cs.Schedules = n.schedules(raw.Schedules, &discard)
	}
	hash, err := ContentHash(cs)
	if err != nil {
		return models.ConfigSnapshot{}, err
	}
	cs.Hash = hash
	return cs, nil
}

// ContentHash is the SHA-256 of the configuration and schedules, hex encoded.
func ContentHash(cs models.ConfigSnapshot) (string, error) {
	b, err := json.Marshal(struct {
		Configuration *models.Configuration `json:"configuration"`
		Schedules     models.ScheduleSet    `json:"schedules"`
	}{cs.Configuration, cs.Schedules})
	if err != nil {
		return "", fmt.Errorf("hash config snapshot: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func (n *Normalizer) table(cfg *models.Configuration, w *warnings) FlagTable {
	if n.generation != GenerationAuto {
		t, _ := TableFor(n.generation)
		return t
	}
	url := ""
	if cfg != nil && cfg.DownloadURL != nil {
		url = *cfg.DownloadURL
	}
	if gen, ok := GenerationFromURL(url); ok {
		t, _ := TableFor(gen)
		return t
	}
	w.add("configuration.download_url", models.WarnUnknownFirmware,
		fmt.Sprintf("cannot infer firmware generation from %q, using %s flags", url, DefaultGeneration), nil)
	t, _ := TableFor(DefaultGeneration)
	return t
}

func (n *Normalizer) status(deviceID string, raw *payload.RawStatus, t FlagTable, w *warnings) models.DeviceStatus {
	st := models.DeviceStatus{DeviceID: deviceID}
	if raw == nil {
		return st
	}
	if raw.DateTime != nil {
		st.DateTime = *raw.DateTime
	}
	if raw.DeviceStatus != nil {
		st.DeviceStatus = *raw.DeviceStatus
		st.DeviceFlags = decodeFlags("status.device_status", st.DeviceStatus, t.Device, w)
	}
	if raw.ConnectionStatus != nil {
		st.ConnectionStatus = *raw.ConnectionStatus
		st.ConnectionFlags = decodeFlags("status.connection_status", st.ConnectionStatus, t.Connection, w)
	}
	return st
}

func (n *Normalizer) report(reportTime int64, raw *payload.RawReport, t FlagTable, w *warnings) models.Report {
	if raw == nil {
		return models.Report{ReportTime: reportTime}
	}
	r := models.Report{
		ReportTime:       reportTime,
		BurningHours:     raw.BurningHours,
		DeviceErrors:     splitCodes(raw.DeviceErrors),
		BoilerErrors:     splitCodes(raw.BoilerErrors),
		RoomTemp:         raw.RoomTemp,
		OutsideTemp:      raw.OutsideTemp,
		DbgOutsideTemp:   raw.DbgOutsideTemp,
		PCBTemp:          raw.PCBTemp,
		CHSetpoint:       raw.CHSetpoint,
		DHWWaterTemp:     raw.DHWWaterTemp,
		CHWaterTemp:      raw.CHWaterTemp,
		DHWWaterPres:     raw.DHWWaterPres,
		CHWaterPres:      raw.CHWaterPres,
		CHReturnTemp:     raw.CHReturnTemp,
		ShownSetTemp:     raw.ShownSetTemp,
		PowerCons:        raw.PowerCons,
		BoilerStatus:     raw.BoilerStatus,
		BoilerConfig:     raw.BoilerConfig,
		CHTimeToTemp:     raw.CHTimeToTemp,
		RSSI:             raw.RSSI,
		Current:          raw.Current,
		Voltage:          raw.Voltage,
		Resets:           raw.Resets,
		MemoryAllocation: raw.MemoryAllocation,
		Details:          raw.Details,
	}
	if raw.BoilerStatus != nil {
		r.BoilerFlags = decodeFlags("report.boiler_status", *raw.BoilerStatus, t.Boiler, w)
	}
	return r
}

func (n *Normalizer) schedules(raw *payload.RawSchedules, w *warnings) models.ScheduleSet {
	return models.ScheduleSet{
		CH:  convertSchedule("schedules.ch_schedule", raw.CH, w),
		DHW: convertSchedule("schedules.dhw_schedule", raw.DHW, w),
	}
}

func (n *Normalizer) activeSchedule(set models.ScheduleSet, deviceTime time.Time) *models.ActiveSchedule {
	if set.CH == nil && set.DHW == nil {
		return nil
	}
	local := deviceTime.In(n.loc)
	as := &models.ActiveSchedule{
		Weekday:  models.WeekdayIndex(local.Weekday()),
		Minute:   models.MinuteOfDay(local),
		CHIndex:  -1,
		DHWIndex: -1,
	}
	if set.CH != nil {
		temp, idx := Resolve(set.CH, as.Weekday, as.Minute)
		as.CHTemp, as.CHIndex = &temp, idx
	}
	if set.DHW != nil {
		temp, idx := Resolve(set.DHW, as.Weekday, as.Minute)
		as.DHWTemp, as.DHWIndex = &temp, idx
	}
	return as
}

func decodeFlags(field string, mask int, flags []Flag, w *warnings) models.StatusFlags {
	set, unknown := decode(mask, flags)
	if unknown != 0 {
		v := float64(unknown)
		w.add(field, models.WarnUnknownStatusBits, fmt.Sprintf("bits 0x%x not in flag table", unknown), &v)
	}
	return models.StatusFlags(set)
}

// splitCodes turns "E1, E2" into [E1 E2]; empty input yields nil.
func splitCodes(s *string) []string {
	if s == nil {
		return nil
	}
	var codes []string
	for _, c := range strings.Split(*s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}
	return codes
}
