package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	col := c.Collector
	switch {
	case col.Interval <= 0:
		return invalid("collector.interval must be > 0")
	case col.PollTimeout <= 0:
		return invalid("collector.poll_timeout is required")
	case col.WriteTimeout <= 0:
		return invalid("collector.write_timeout is required")
	case col.WriteRetries < 1:
		return invalid("collector.write_retries must be >= 1")
	case col.GracePeriod < 0:
		return invalid("collector.grace_period must be >= 0")
	}

	b := col.Backoff
	switch {
	case b.Initial <= 0:
		return invalid("collector.backoff.initial must be > 0")
	case b.Max < b.Initial:
		return invalid("collector.backoff.max must be >= initial")
	case b.Multiplier < 1:
		return invalid("collector.backoff.multiplier must be >= 1")
	case b.Jitter < 0 || b.Jitter > b.Multiplier-1:
		return invalid("collector.backoff.jitter must be within [0, multiplier-1]")
	}

	switch strings.ToLower(col.Generation) {
	case "", "auto", "r1", "r4":
	default:
		return invalid("collector.generation %q is not one of auto, r1, r4", col.Generation)
	}
	if _, err := c.Location(); err != nil {
		return invalid("collector.timezone: %v", err)
	}

	if len(c.Devices) == 0 {
		return invalid("at least one device is required")
	}
	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if strings.TrimSpace(d.ID) == "" {
			return invalid("devices[%d].id is required", i)
		}
		if seen[d.ID] {
			return invalid("duplicate device id %q", d.ID)
		}
		seen[d.ID] = true
		if err := d.validate(); err != nil {
			return err
		}
	}

	if c.Influx.URL != "" && (c.Influx.Org == "" || c.Influx.Bucket == "") {
		return invalid("influx.org and influx.bucket are required when influx.url is set")
	}
	return nil
}

// ValidateServe additionally checks what the HTTP API needs.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Auth.SigningKey) == "" {
		return invalid("auth.signing_key is required (set BOILER_AUTH_SIGNING_KEY)")
	}
	return nil
}

func (d DeviceConfig) validate() error {
	switch d.Source {
	case SourceLocal:
		if d.Host == "" {
			return invalid("device %q: host is required for local source", d.ID)
		}
		if !d.UseKeyring && (d.UserAccount == "" || d.MACAddress == "") {
			return invalid("device %q: user_account and mac_address are required unless use_keyring is set", d.ID)
		}
	case SourceExec:
		if d.Command == "" {
			return invalid("device %q: command is required for exec source", d.ID)
		}
	case SourceFile:
		if d.Path == "" {
			return invalid("device %q: path is required for file source", d.ID)
		}
	case SourceSimulator:
	default:
		return invalid("device %q: unknown source %q", d.ID, d.Source)
	}
	return nil
}
