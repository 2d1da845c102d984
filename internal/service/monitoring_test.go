package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"boiler_collector/internal/models"
	"boiler_collector/internal/normalize"
)

func weekdaySchedule(base float64, entries ...models.ScheduleEntry) *models.Schedule {
	s := &models.Schedule{BaseTemp: base}
	for d := 0; d < models.DaysPerWeek; d++ {
		s.Days[d] = append([]models.ScheduleEntry(nil), entries...)
	}
	return s
}

func TestMonitoring_LatestNotFound(t *testing.T) {
	t.Parallel()

	svc := NewMonitoringService(newFakeReportRepo(), newFakeConfigRepo(), nil)
	_, err := svc.Latest(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMonitoring_LatestReturnsNewest(t *testing.T) {
	t.Parallel()

	reports := newFakeReportRepo()
	ctx := context.Background()
	for _, rt := range []int64{10, 30, 20} {
		if _, err := reports.Insert(ctx, testSnapshot("dev", rt)); err != nil {
			t.Fatal(err)
		}
	}
	svc := NewMonitoringService(reports, newFakeConfigRepo(), nil)

	got, err := svc.Latest(ctx, "dev")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.ReportTime != 30 {
		t.Fatalf("expected report_time 30, got %d", got.ReportTime)
	}
}

func TestMonitoring_ReportsConvertsRange(t *testing.T) {
	t.Parallel()

	reports := newFakeReportRepo()
	svc := NewMonitoringService(reports, newFakeConfigRepo(), nil)

	from := time.Date(2015, time.December, 23, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	if _, err := svc.Reports(context.Background(), "dev", ReportQuery{From: from, To: to, Limit: 50}); err != nil {
		t.Fatalf("Reports: %v", err)
	}
	if reports.gotFrom != normalize.DeviceSeconds(from) || reports.gotTo != normalize.DeviceSeconds(to) {
		t.Fatalf("unexpected range %d..%d", reports.gotFrom, reports.gotTo)
	}
	if reports.gotLimit != 50 {
		t.Fatalf("limit not passed through: %d", reports.gotLimit)
	}

	_, err := svc.Reports(context.Background(), "dev", ReportQuery{From: to, To: from})
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
}

func TestMonitoring_ReportsOpenBounds(t *testing.T) {
	t.Parallel()

	reports := newFakeReportRepo()
	svc := NewMonitoringService(reports, newFakeConfigRepo(), nil)
	if _, err := svc.Reports(context.Background(), "dev", ReportQuery{}); err != nil {
		t.Fatalf("Reports: %v", err)
	}
	if reports.gotFrom != 0 || reports.gotTo != 0 {
		t.Fatalf("zero bounds must stay open, got %d..%d", reports.gotFrom, reports.gotTo)
	}
}

func TestMonitoring_ActiveSchedule(t *testing.T) {
	t.Parallel()

	configs := newFakeConfigRepo()
	configs.stored["dev"] = models.ConfigSnapshot{
		DeviceID: "dev",
		Schedules: models.ScheduleSet{
			CH:  weekdaySchedule(15, models.ScheduleEntry{StartMinute: 420, EndMinute: 540, Temp: 20}),
			DHW: weekdaySchedule(10),
		},
	}
	svc := NewMonitoringService(newFakeReportRepo(), configs, nil)

	tests := []struct {
		name    string
		at      time.Time
		chTemp  float64
		chIndex int
	}{
		{"inside morning block", time.Date(2015, time.December, 21, 7, 30, 0, 0, time.UTC), 20, 0},
		{"end is exclusive", time.Date(2015, time.December, 21, 9, 0, 0, 0, time.UTC), 15, -1},
		{"before block", time.Date(2015, time.December, 21, 6, 59, 0, 0, time.UTC), 15, -1},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			as, err := svc.ActiveSchedule(context.Background(), "dev", tc.at)
			if err != nil {
				t.Fatalf("ActiveSchedule: %v", err)
			}
			if as.Weekday != 0 {
				t.Fatalf("2015-12-21 is a Monday, got weekday %d", as.Weekday)
			}
			if as.CHTemp == nil || *as.CHTemp != tc.chTemp || as.CHIndex != tc.chIndex {
				t.Fatalf("ch: got %v/%d want %v/%d", as.CHTemp, as.CHIndex, tc.chTemp, tc.chIndex)
			}
			if as.DHWTemp == nil || *as.DHWTemp != 10 || as.DHWIndex != -1 {
				t.Fatalf("dhw: got %v/%d", as.DHWTemp, as.DHWIndex)
			}
		})
	}
}

func TestMonitoring_ActiveScheduleUsesLocation(t *testing.T) {
	t.Parallel()

	configs := newFakeConfigRepo()
	configs.stored["dev"] = models.ConfigSnapshot{
		DeviceID: "dev",
		Schedules: models.ScheduleSet{
			CH: weekdaySchedule(15, models.ScheduleEntry{StartMinute: 420, EndMinute: 540, Temp: 20}),
		},
	}
	svc := NewMonitoringService(newFakeReportRepo(), configs, time.FixedZone("UTC+2", 2*3600))

	// 06:00Z is 08:00 local.
	as, err := svc.ActiveSchedule(context.Background(), "dev", time.Date(2015, time.December, 21, 6, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ActiveSchedule: %v", err)
	}
	if as.Minute != 480 || as.CHIndex != 0 {
		t.Fatalf("expected local minute 480 in block 0, got minute=%d index=%d", as.Minute, as.CHIndex)
	}
	if as.DHWTemp != nil {
		t.Fatalf("no DHW program stored, got %v", *as.DHWTemp)
	}
}

func TestMonitoring_ActiveScheduleNotFound(t *testing.T) {
	t.Parallel()

	configs := newFakeConfigRepo()
	configs.stored["bare"] = models.ConfigSnapshot{DeviceID: "bare"}
	svc := NewMonitoringService(newFakeReportRepo(), configs, nil)

	for _, id := range []string{"missing", "bare"} {
		if _, err := svc.ActiveSchedule(context.Background(), id, time.Now()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", id, err)
		}
	}
}
