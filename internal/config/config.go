package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. BOILER_DB_PATH.
const EnvPrefix = "BOILER"

// Device sources.
const (
	SourceLocal     = "local"
	SourceExec      = "exec"
	SourceFile      = "file"
	SourceSimulator = "simulator"
)

type Config struct {
	Port      string          `mapstructure:"port" toml:"port"`
	Log       LogConfig       `mapstructure:"log" toml:"log"`
	DB        DBConfig        `mapstructure:"db" toml:"db"`
	Auth      AuthConfig      `mapstructure:"auth" toml:"auth"`
	CORS      CORSConfig      `mapstructure:"cors" toml:"cors"`
	Collector CollectorConfig `mapstructure:"collector" toml:"collector"`
	Influx    InfluxConfig    `mapstructure:"influx" toml:"influx"`
	Devices   []DeviceConfig  `mapstructure:"devices" toml:"devices"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format"`
}

type DBConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key" toml:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl" toml:"token_ttl"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" toml:"allowed_origins"`
}

// CollectorConfig holds the loop settings shared by every device.
type CollectorConfig struct {
	Interval     time.Duration `mapstructure:"interval" toml:"interval"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout" toml:"poll_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" toml:"write_timeout"`
	WriteRetries int           `mapstructure:"write_retries" toml:"write_retries"`
	GracePeriod  time.Duration `mapstructure:"grace_period" toml:"grace_period"`
	PendingLimit int           `mapstructure:"pending_limit" toml:"pending_limit"`
	Backoff      BackoffConfig `mapstructure:"backoff" toml:"backoff"`
	// Generation selects the status flag table: auto, r1 or r4.
	Generation string `mapstructure:"generation" toml:"generation"`
	// Timezone is the IANA zone the thermostat schedules run in.
	Timezone string `mapstructure:"timezone" toml:"timezone"`
}

type BackoffConfig struct {
	Initial    time.Duration `mapstructure:"initial" toml:"initial"`
	Max        time.Duration `mapstructure:"max" toml:"max"`
	Multiplier float64       `mapstructure:"multiplier" toml:"multiplier"`
	Jitter     float64       `mapstructure:"jitter" toml:"jitter"`
}

// InfluxConfig enables the InfluxDB mirror when URL is set.
type InfluxConfig struct {
	URL    string `mapstructure:"url" toml:"url"`
	Token  string `mapstructure:"token" toml:"token"`
	Org    string `mapstructure:"org" toml:"org"`
	Bucket string `mapstructure:"bucket" toml:"bucket"`
}

// DeviceConfig describes one polled thermostat.
type DeviceConfig struct {
	ID     string `mapstructure:"id" toml:"id"`
	Source string `mapstructure:"source" toml:"source"`

	// local
	Host        string `mapstructure:"host" toml:"host,omitempty"`
	Port        int    `mapstructure:"port" toml:"port,omitempty"`
	UserAccount string `mapstructure:"user_account" toml:"user_account,omitempty"`
	MACAddress  string `mapstructure:"mac_address" toml:"mac_address,omitempty"`
	DeviceName  string `mapstructure:"device_name" toml:"device_name,omitempty"`
	UseKeyring  bool   `mapstructure:"use_keyring" toml:"use_keyring,omitempty"`
	Probe       bool   `mapstructure:"probe" toml:"probe,omitempty"`

	// exec
	Command string   `mapstructure:"command" toml:"command,omitempty"`
	Args    []string `mapstructure:"args" toml:"args,omitempty"`

	// file
	Path string `mapstructure:"path" toml:"path,omitempty"`
}

// Default returns a config that runs one simulated device.
func Default() Config {
	return Config{
		Port: "8080",
		Log:  LogConfig{Level: "info", Format: "console"},
		DB:   DBConfig{Path: "boiler.db"},
		Auth: AuthConfig{TokenTTL: time.Hour},
		Collector: CollectorConfig{
			Interval:     time.Minute,
			PollTimeout:  15 * time.Second,
			WriteTimeout: 5 * time.Second,
			WriteRetries: 2,
			GracePeriod:  5 * time.Second,
			PendingLimit: 100,
			Backoff: BackoffConfig{
				Initial:    10 * time.Second,
				Max:        10 * time.Minute,
				Multiplier: 2,
				Jitter:     0.2,
			},
			Generation: "auto",
			Timezone:   "UTC",
		},
		Devices: []DeviceConfig{{ID: "simulated-one", Source: SourceSimulator}},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("port", d.Port)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("db.path", d.DB.Path)
	v.SetDefault("auth.signing_key", d.Auth.SigningKey)
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("collector.interval", d.Collector.Interval)
	v.SetDefault("collector.poll_timeout", d.Collector.PollTimeout)
	v.SetDefault("collector.write_timeout", d.Collector.WriteTimeout)
	v.SetDefault("collector.write_retries", d.Collector.WriteRetries)
	v.SetDefault("collector.grace_period", d.Collector.GracePeriod)
	v.SetDefault("collector.pending_limit", d.Collector.PendingLimit)
	v.SetDefault("collector.backoff.initial", d.Collector.Backoff.Initial)
	v.SetDefault("collector.backoff.max", d.Collector.Backoff.Max)
	v.SetDefault("collector.backoff.multiplier", d.Collector.Backoff.Multiplier)
	v.SetDefault("collector.backoff.jitter", d.Collector.Backoff.Jitter)
	v.SetDefault("collector.generation", d.Collector.Generation)
	v.SetDefault("collector.timezone", d.Collector.Timezone)
	v.SetDefault("influx.url", "")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "")
	v.SetDefault("influx.bucket", "")
}

// Load reads .env (if present), then the config file, then BOILER_* overrides.
// An empty path searches ./configs for config.{yml,toml}; a missing file there
// falls back to defaults. The result is validated.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Default()
	cfg.Devices = nil
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if !v.IsSet("devices") {
		cfg.Devices = Default().Devices
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Location resolves Collector.Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Collector.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Collector.Timezone)
}

// Device returns the configured device with the given id.
func (c *Config) Device(id string) (DeviceConfig, bool) {
	for _, d := range c.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return DeviceConfig{}, false
}
