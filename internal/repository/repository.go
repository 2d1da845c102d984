package repository

import (
	"context"
	"database/sql"

	"boiler_collector/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// ReportRepo stores immutable report rows keyed by (device_id, report_time).
type ReportRepo interface {
	Insert(ctx context.Context, s models.Snapshot) (bool, error)
	Latest(ctx context.Context, deviceID string) (*models.Snapshot, error)
	List(ctx context.Context, deviceID string, from, to int64, limit int) ([]models.ReportPoint, error)
	Devices(ctx context.Context) ([]models.DeviceSummary, error)
}

// ConfigRepo keeps the latest configuration snapshot per device.
type ConfigRepo interface {
	Upsert(ctx context.Context, c models.ConfigSnapshot) error
	Get(ctx context.Context, deviceID string) (*models.ConfigSnapshot, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.CollectorEvent) error
	List(ctx context.Context, f models.EventFilter) ([]models.CollectorEvent, error)
}

type Repository struct {
	ReportRepo ReportRepo
	ConfigRepo ConfigRepo
	EventRepo  EventRepo
	Auth       Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		ReportRepo: NewReportSQLite(db),
		ConfigRepo: NewConfigSQLite(db),
		EventRepo:  NewEventSQLite(db),
		Auth:       NewUserRepository(db),
	}
}
