package main

import (
	"database/sql"
	"fmt"
	"time"

	"boiler_collector/internal/collector"
	"boiler_collector/internal/config"
	"boiler_collector/internal/device"
	"boiler_collector/internal/logger"
	"boiler_collector/internal/normalize"
	"boiler_collector/internal/repository"
	"boiler_collector/internal/repository/db"
	"boiler_collector/internal/repository/influx"
	"boiler_collector/internal/service"
)

// loadConfig reads the file named by --config, or configs/config.* when unset.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// openDB initializes the SQLite database at path.
func openDB(log *logger.Logger, path string) (*sql.DB, error) {
	log.Infow("opening database", "path", path)
	return db.InitDB(path)
}

// credentialStore prefers the values in the config file and falls back to the OS keyring.
func credentialStore(dc config.DeviceConfig) device.CredentialStore {
	chain := device.ChainStore{}
	if dc.MACAddress != "" {
		chain = append(chain, device.NewStaticStore(map[string]device.Credentials{
			dc.ID: {UserAccount: dc.UserAccount, MACAddress: dc.MACAddress, DeviceName: dc.DeviceName},
		}))
	}
	if dc.UseKeyring {
		chain = append(chain, device.NewKeyringStore(device.KeyringService))
	}
	return chain
}

// newLocalClient builds the LAN client for a "local" device.
func newLocalClient(dc config.DeviceConfig) (*device.LocalClient, error) {
	creds, err := credentialStore(dc).Load(dc.ID)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", dc.ID, err)
	}
	opts := device.LocalOptions{
		Host:        dc.Host,
		Port:        dc.Port,
		Credentials: creds,
	}
	if dc.Probe {
		opts.Prober = device.PingProber{Timeout: 2 * time.Second}
	}
	return device.NewLocalClient(opts)
}

// buildQuerier maps a device entry to its source.
func buildQuerier(dc config.DeviceConfig) (device.Querier, error) {
	switch dc.Source {
	case config.SourceLocal:
		return newLocalClient(dc)
	case config.SourceExec:
		return device.ExecSource{Command: dc.Command, Args: dc.Args}, nil
	case config.SourceFile:
		return device.FileSource{Path: dc.Path}, nil
	case config.SourceSimulator:
		return device.NewSimulator(dc.ID, nil), nil
	default:
		return nil, fmt.Errorf("device %s: unknown source %q", dc.ID, dc.Source)
	}
}

// buildSinks returns the report mirrors enabled in cfg and a func closing them.
func buildSinks(cfg *config.Config, log *logger.Logger) ([]service.SnapshotSink, func()) {
	if cfg.Influx.URL == "" {
		return nil, func() {}
	}
	w := influx.NewWriter(cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket)
	log.Infow("mirroring reports to influxdb", "url", cfg.Influx.URL, "bucket", cfg.Influx.Bucket)
	return []service.SnapshotSink{w}, w.Close
}

func serviceOptions(cfg *config.Config, loc *time.Location, sinks []service.SnapshotSink, log *logger.Logger) service.Options {
	return service.Options{
		Auth: service.AuthConfig{SigningKey: cfg.Auth.SigningKey, TokenTTL: cfg.Auth.TokenTTL},
		Write: service.WriteOptions{
			Timeout: cfg.Collector.WriteTimeout,
			Retries: cfg.Collector.WriteRetries,
		},
		Location: loc,
		Sinks:    sinks,
		Logger:   log,
	}
}

// buildCollectors creates one collector per configured device.
func buildCollectors(cfg *config.Config, rec service.Recorder, events repository.EventRepo, loc *time.Location, log *logger.Logger) (*collector.Group, error) {
	norm, err := normalize.New(cfg.Collector.Generation, loc)
	if err != nil {
		return nil, err
	}
	backoff := collector.Backoff{
		Initial:    cfg.Collector.Backoff.Initial,
		Max:        cfg.Collector.Backoff.Max,
		Multiplier: cfg.Collector.Backoff.Multiplier,
		Jitter:     cfg.Collector.Backoff.Jitter,
	}

	collectors := make([]*collector.Collector, 0, len(cfg.Devices))
	for _, dc := range cfg.Devices {
		q, err := buildQuerier(dc)
		if err != nil {
			return nil, err
		}
		c, err := collector.New(collector.Options{
			DeviceID:     dc.ID,
			Querier:      q,
			Normalizer:   norm,
			Recorder:     rec,
			Events:       events,
			Logger:       log.With("source", dc.Source),
			Interval:     cfg.Collector.Interval,
			PollTimeout:  cfg.Collector.PollTimeout,
			GracePeriod:  cfg.Collector.GracePeriod,
			Backoff:      backoff,
			PendingLimit: cfg.Collector.PendingLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", dc.ID, err)
		}
		collectors = append(collectors, c)
	}
	return collector.NewGroup(collectors...), nil
}
