package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates the collector's SQLite file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is not great with many writers
	db.SetMaxIdleConns(1)

	// WAL lets the HTTP readers run while a collector writes
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", p, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

var pragmas = []string{
	"PRAGMA journal_mode = WAL;",
	"PRAGMA foreign_keys = ON;",
	"PRAGMA busy_timeout = 5000;",
}

const schemaReports = `
CREATE TABLE IF NOT EXISTS reports (
    device_id TEXT NOT NULL,
    report_time INTEGER NOT NULL,
    collected_at TEXT NOT NULL,
    burning_hours REAL,
    room_temp REAL,
    outside_temp REAL,
    dbg_outside_temp REAL,
    pcb_temp REAL,
    ch_setpoint REAL,
    dhw_water_temp REAL,
    ch_water_temp REAL,
    dhw_water_pres REAL,
    ch_water_pres REAL,
    ch_return_temp REAL,
    shown_set_temp REAL,
    power_cons REAL,
    boiler_status INTEGER,
    boiler_config INTEGER,
    ch_time_to_temp INTEGER,
    rssi INTEGER,
    "current" INTEGER,
    voltage INTEGER,
    resets INTEGER,
    memory_allocation INTEGER,
    device_errors TEXT,
    boiler_errors TEXT,
    flame_on BOOLEAN NOT NULL DEFAULT 0,
    warnings INTEGER NOT NULL DEFAULT 0,
    snapshot TEXT NOT NULL,
    PRIMARY KEY (device_id, report_time)
);
`

// laterReportColumns were added after the first release; older files get
// them through ALTER TABLE.
var laterReportColumns = []struct{ name, decl string }{
	{"dbg_outside_temp", "REAL"},
	{"pcb_temp", "REAL"},
	{"dhw_water_pres", "REAL"},
	{"ch_return_temp", "REAL"},
	{"shown_set_temp", "REAL"},
	{"power_cons", "REAL"},
	{"boiler_config", "INTEGER"},
	{"ch_time_to_temp", "INTEGER"},
	{"rssi", "INTEGER"},
	{"current", "INTEGER"},
	{"voltage", "INTEGER"},
	{"resets", "INTEGER"},
	{"memory_allocation", "INTEGER"},
	{"device_errors", "TEXT"},
	{"boiler_errors", "TEXT"},
}

const schemaDeviceConfig = `
CREATE TABLE IF NOT EXISTS device_config (
    device_id TEXT PRIMARY KEY,
    hash TEXT NOT NULL,
    configuration TEXT,
    schedules TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

const schemaCollectorEvents = `
CREATE TABLE IF NOT EXISTS collector_events (
    id TEXT PRIMARY KEY,
    device_id TEXT NOT NULL,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    message TEXT NOT NULL,
    meta TEXT
);
`

const indexCollectorEvents = `
CREATE INDEX IF NOT EXISTS idx_collector_events_occurred ON collector_events (occurred_at);
`

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaReports,
		schemaDeviceConfig,
		schemaCollectorEvents,
		indexCollectorEvents,
		schemaUsers,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := addMissingColumns(tx, "reports", laterReportColumns); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}

func addMissingColumns(tx *sql.Tx, table string, cols []struct{ name, decl string }) error {
	rows, err := tx.Query("SELECT name FROM pragma_table_info('" + table + "')")
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	have := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return fmt.Errorf("inspect %s: %w", table, err)
		}
		have[name] = true
	}
	if err := rows.Close(); err != nil {
		return err
	}
	for _, c := range cols {
		if have[c.name] {
			continue
		}
		if _, err := tx.Exec("ALTER TABLE " + table + ` ADD COLUMN "` + c.name + `" ` + c.decl); err != nil {
			return fmt.Errorf("add column %s.%s: %w", table, c.name, err)
		}
	}
	return nil
}
