package service

import (
	"context"
	"time"

	"boiler_collector/internal/logger"
	"boiler_collector/internal/models"
	"boiler_collector/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Monitoring exposes the recorded telemetry read-only.
type Monitoring interface {
	Devices(ctx context.Context) ([]models.DeviceSummary, error)
	Latest(ctx context.Context, deviceID string) (models.Snapshot, error)
	Reports(ctx context.Context, deviceID string, q ReportQuery) ([]models.ReportPoint, error)
	Config(ctx context.Context, deviceID string) (models.ConfigSnapshot, error)
	ActiveSchedule(ctx context.Context, deviceID string, at time.Time) (models.ActiveSchedule, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.CollectorEvent, error)
}

// Recorder durably stores snapshots. Record is idempotent per (device, report time).
type Recorder interface {
	Record(ctx context.Context, s models.Snapshot) (bool, error)
	RecordConfig(ctx context.Context, c models.ConfigSnapshot) error
}

// Collectors reports the state of the running collector loops.
type Collectors interface {
	Status() []models.CollectorStatus
}

type Service struct {
	Monitoring
	EventLog
	Recorder
	Collectors
	Authorization
}

// Options carries the settings the services need beyond the repositories.
type Options struct {
	Auth     AuthConfig
	Write    WriteOptions
	Location *time.Location
	Sinks    []SnapshotSink
	Logger   *logger.Logger
}

// NewService wires the repository layer into concrete services. Collectors
// starts empty; set it once the collector group exists.
func NewService(repos *repository.Repository, opts Options) *Service {
	return &Service{
		Monitoring:    NewMonitoringService(repos.ReportRepo, repos.ConfigRepo, opts.Location),
		EventLog:      NewEventLogService(repos.EventRepo),
		Recorder:      NewRecorderService(repos.ReportRepo, repos.ConfigRepo, opts.Write, opts.Logger, opts.Sinks...),
		Collectors:    noCollectors{},
		Authorization: NewAuthService(repos.Auth, opts.Auth),
	}
}

type noCollectors struct{}

func (noCollectors) Status() []models.CollectorStatus { return nil }
