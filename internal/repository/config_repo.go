package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"boiler_collector/internal/models"
)

type ConfigSQLite struct {
	db *sql.DB
}

func NewConfigSQLite(db *sql.DB) *ConfigSQLite {
	return &ConfigSQLite{db: db}
}

var _ ConfigRepo = (*ConfigSQLite)(nil)

const (
	upsertConfigSQL = `
		INSERT INTO device_config (device_id, hash, configuration, schedules, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			hash=excluded.hash,
			configuration=excluded.configuration,
			schedules=excluded.schedules,
			updated_at=excluded.updated_at
	`

	selectConfigSQL = `
		SELECT device_id, hash, configuration, schedules, updated_at
		FROM device_config WHERE device_id=?
	`
)

// Upsert replaces the device's configuration row wholesale.
func (r *ConfigSQLite) Upsert(ctx context.Context, c models.ConfigSnapshot) error {
	var cfgJSON *string
	if c.Configuration != nil {
		b, err := json.Marshal(c.Configuration)
		if err != nil {
			return fmt.Errorf("marshal configuration: %w", err)
		}
		s := string(b)
		cfgJSON = &s
	}
	schedJSON, err := json.Marshal(c.Schedules)
	if err != nil {
		return fmt.Errorf("marshal schedules: %w", err)
	}

	// ensure UpdatedAt is always persisted as UTC; set if zero
	ts := c.UpdatedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err = r.db.ExecContext(ctx, upsertConfigSQL,
		c.DeviceID,
		c.Hash,
		cfgJSON,
		string(schedJSON),
		ts.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert config for %q: %w", c.DeviceID, err)
	}
	return nil
}

// Get fetches the configuration row of a device, or (nil, nil) if none.
func (r *ConfigSQLite) Get(ctx context.Context, deviceID string) (*models.ConfigSnapshot, error) {
	var (
		c         models.ConfigSnapshot
		cfgJSON   sql.NullString
		schedJSON string
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx, selectConfigSQL, deviceID).Scan(
		&c.DeviceID,
		&c.Hash,
		&cfgJSON,
		&schedJSON,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select config for %q: %w", deviceID, err)
	}

	if cfgJSON.Valid && cfgJSON.String != "" {
		c.Configuration = &models.Configuration{}
		if err := json.Unmarshal([]byte(cfgJSON.String), c.Configuration); err != nil {
			return nil, fmt.Errorf("decode configuration: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(schedJSON), &c.Schedules); err != nil {
		return nil, fmt.Errorf("decode schedules: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}
	return &c, nil
}
