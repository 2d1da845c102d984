package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boiler_collector/internal/models"
	"boiler_collector/internal/normalize"
	"boiler_collector/internal/repository"
)

// ErrNotFound is returned when a device has nothing recorded yet.
var ErrNotFound = errors.New("not found")

type MonitoringService struct {
	reportRepo repository.ReportRepo
	configRepo repository.ConfigRepo
	loc        *time.Location
	now        func() time.Time
}

// NewMonitoringService resolves schedules in loc; nil means UTC.
func NewMonitoringService(reportRepo repository.ReportRepo, configRepo repository.ConfigRepo, loc *time.Location) *MonitoringService {
	if loc == nil {
		loc = time.UTC
	}
	return &MonitoringService{reportRepo: reportRepo, configRepo: configRepo, loc: loc, now: time.Now}
}

func (s *MonitoringService) Devices(ctx context.Context) ([]models.DeviceSummary, error) {
	return s.reportRepo.Devices(ctx)
}

// Latest returns the newest recorded snapshot of a device.
func (s *MonitoringService) Latest(ctx context.Context, deviceID string) (models.Snapshot, error) {
	snap, err := s.reportRepo.Latest(ctx, deviceID)
	if err != nil {
		return models.Snapshot{}, err
	}
	if snap == nil {
		return models.Snapshot{}, fmt.Errorf("latest report of %q: %w", deviceID, ErrNotFound)
	}
	return *snap, nil
}

// Reports returns the stored points whose device time falls in [q.From, q.To].
func (s *MonitoringService) Reports(ctx context.Context, deviceID string, q ReportQuery) ([]models.ReportPoint, error) {
	if !validRange(q.From, q.To) {
		return nil, ErrInvalidTimeRange
	}
	var from, to int64
	if !q.From.IsZero() {
		from = normalize.DeviceSeconds(q.From)
	}
	if !q.To.IsZero() {
		to = normalize.DeviceSeconds(q.To)
	}
	return s.reportRepo.List(ctx, deviceID, from, to, q.Limit)
}

// Config returns the latest configuration snapshot of a device.
func (s *MonitoringService) Config(ctx context.Context, deviceID string) (models.ConfigSnapshot, error) {
	c, err := s.configRepo.Get(ctx, deviceID)
	if err != nil {
		return models.ConfigSnapshot{}, err
	}
	if c == nil {
		return models.ConfigSnapshot{}, fmt.Errorf("config of %q: %w", deviceID, ErrNotFound)
	}
	return *c, nil
}

// ActiveSchedule resolves the stored weekly programs at the given instant;
// a zero at means now.
func (s *MonitoringService) ActiveSchedule(ctx context.Context, deviceID string, at time.Time) (models.ActiveSchedule, error) {
	c, err := s.Config(ctx, deviceID)
	if err != nil {
		return models.ActiveSchedule{}, err
	}
	if c.Schedules.CH == nil && c.Schedules.DHW == nil {
		return models.ActiveSchedule{}, fmt.Errorf("schedules of %q: %w", deviceID, ErrNotFound)
	}
	if at.IsZero() {
		at = s.now()
	}

	local := at.In(s.loc)
	as := models.ActiveSchedule{
		Weekday:  models.WeekdayIndex(local.Weekday()),
		Minute:   models.MinuteOfDay(local),
		CHIndex:  -1,
		DHWIndex: -1,
	}
	if c.Schedules.CH != nil {
		temp, idx := normalize.Resolve(c.Schedules.CH, as.Weekday, as.Minute)
		as.CHTemp, as.CHIndex = &temp, idx
	}
	if c.Schedules.DHW != nil {
		temp, idx := normalize.Resolve(c.Schedules.DHW, as.Weekday, as.Minute)
		as.DHWTemp, as.DHWIndex = &temp, idx
	}
	return as, nil
}
