package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"boiler_collector/internal/models"
	"boiler_collector/internal/normalize"
)

type ReportSQLite struct {
	db *sql.DB
}

func NewReportSQLite(db *sql.DB) *ReportSQLite {
	return &ReportSQLite{db: db}
}

var _ ReportRepo = (*ReportSQLite)(nil)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 1000

// readingColumns are the Report fields kept as their own columns, in the
// order of readings and pointTargets.
var readingColumns = []string{
	"burning_hours", "room_temp", "outside_temp", "dbg_outside_temp", "pcb_temp",
	"ch_setpoint", "dhw_water_temp", "ch_water_temp", "dhw_water_pres", "ch_water_pres",
	"ch_return_temp", "shown_set_temp", "power_cons",
	"boiler_status", "boiler_config", "ch_time_to_temp", "rssi", `"current"`, "voltage",
	"resets", "memory_allocation",
	"device_errors", "boiler_errors",
}

var (
	insertReportSQL = `INSERT INTO reports (device_id, report_time, collected_at, ` +
		strings.Join(readingColumns, ", ") + `, flame_on, warnings, snapshot) VALUES (?, ?, ?, ` +
		strings.Repeat("?, ", len(readingColumns)) + `?, ?, ?) ON CONFLICT(device_id, report_time) DO NOTHING`

	selectReportPointsSQL = `SELECT report_time, ` + strings.Join(readingColumns, ", ") + `, flame_on, warnings FROM reports`
)

const (
	selectLatestReportSQL = `
		SELECT snapshot FROM reports WHERE device_id = ? ORDER BY report_time DESC LIMIT 1
	`

	selectDevicesSQL = `
		SELECT device_id, COUNT(*), MAX(report_time) FROM reports GROUP BY device_id ORDER BY device_id
	`
)

func readings(r *models.Report) []any {
	return []any{
		r.BurningHours, r.RoomTemp, r.OutsideTemp, r.DbgOutsideTemp, r.PCBTemp,
		r.CHSetpoint, r.DHWWaterTemp, r.CHWaterTemp, r.DHWWaterPres, r.CHWaterPres,
		r.CHReturnTemp, r.ShownSetTemp, r.PowerCons,
		r.BoilerStatus, r.BoilerConfig, r.CHTimeToTemp, r.RSSI, r.Current, r.Voltage,
		r.Resets, r.MemoryAllocation,
		joinCodes(r.DeviceErrors), joinCodes(r.BoilerErrors),
	}
}

func pointTargets(p *models.ReportPoint, deviceErrors, boilerErrors *sql.NullString) []any {
	return []any{
		&p.BurningHours, &p.RoomTemp, &p.OutsideTemp, &p.DbgOutsideTemp, &p.PCBTemp,
		&p.CHSetpoint, &p.DHWWaterTemp, &p.CHWaterTemp, &p.DHWWaterPres, &p.CHWaterPres,
		&p.CHReturnTemp, &p.ShownSetTemp, &p.PowerCons,
		&p.BoilerStatus, &p.BoilerConfig, &p.CHTimeToTemp, &p.RSSI, &p.Current, &p.Voltage,
		&p.Resets, &p.MemoryAllocation,
		deviceErrors, boilerErrors,
	}
}

// joinCodes stores error code lists comma separated; an empty list is NULL.
func joinCodes(codes []string) any {
	if len(codes) == 0 {
		return nil
	}
	return strings.Join(codes, ",")
}

func splitCodes(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	return strings.Split(s.String, ",")
}

// Insert stores s once. A second insert of the same (device_id, report_time)
// is a no-op and reports inserted=false; existing rows are never mutated.
func (r *ReportSQLite) Insert(ctx context.Context, s models.Snapshot) (bool, error) {
	blob, err := json.Marshal(s)
	if err != nil {
		return false, fmt.Errorf("marshal snapshot: %w", err)
	}

	collected := s.CollectedAt
	if collected.IsZero() {
		collected = time.Now()
	}

	args := []any{s.DeviceID, s.ReportTime, collected.UTC().Format(time.RFC3339Nano)}
	args = append(args, readings(&s.Report)...)
	args = append(args, s.Report.BoilerFlags.Has("flame_on"), len(s.Warnings), string(blob))
	res, err := r.db.ExecContext(ctx, insertReportSQL, args...)
	if err != nil {
		return false, fmt.Errorf("insert report %s@%d: %w", s.DeviceID, s.ReportTime, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// Latest returns the newest snapshot of a device, or (nil, nil) if none.
func (r *ReportSQLite) Latest(ctx context.Context, deviceID string) (*models.Snapshot, error) {
	var blob string
	err := r.db.QueryRowContext(ctx, selectLatestReportSQL, deviceID).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select latest report for %q: %w", deviceID, err)
	}
	var s models.Snapshot
	if err := json.Unmarshal([]byte(blob), &s); err != nil {
		return nil, fmt.Errorf("decode stored snapshot: %w", err)
	}
	return &s, nil
}

// List returns points of deviceID with from <= report_time <= to, oldest first.
// Zero bounds are open.
func (r *ReportSQLite) List(ctx context.Context, deviceID string, from, to int64, limit int) ([]models.ReportPoint, error) {
	conds := []string{"device_id = ?"}
	args := []any{deviceID}
	if from != 0 {
		conds = append(conds, "report_time >= ?")
		args = append(args, from)
	}
	if to != 0 {
		conds = append(conds, "report_time <= ?")
		args = append(args, to)
	}
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}

	q := selectReportPointsSQL + " WHERE " + strings.Join(conds, " AND ") + " ORDER BY report_time ASC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ReportPoint, 0, 64)
	for rows.Next() {
		var (
			p                          models.ReportPoint
			deviceErrors, boilerErrors sql.NullString
		)
		dest := append([]any{&p.ReportTime}, pointTargets(&p, &deviceErrors, &boilerErrors)...)
		dest = append(dest, &p.FlameOn, &p.Warnings)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		p.DeviceErrors = splitCodes(deviceErrors)
		p.BoilerErrors = splitCodes(boilerErrors)
		p.DeviceTime = normalize.DeviceTime(p.ReportTime)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Devices summarizes every device with at least one report.
func (r *ReportSQLite) Devices(ctx context.Context) ([]models.DeviceSummary, error) {
	rows, err := r.db.QueryContext(ctx, selectDevicesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DeviceSummary
	for rows.Next() {
		var d models.DeviceSummary
		if err := rows.Scan(&d.DeviceID, &d.Reports, &d.LastReportTime); err != nil {
			return nil, err
		}
		d.LastDeviceTime = normalize.DeviceTime(d.LastReportTime)
		out = append(out, d)
	}
	return out, rows.Err()
}
