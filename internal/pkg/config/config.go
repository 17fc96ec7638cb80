package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Model     ModelConfig     `mapstructure:"model"`
	Session   SessionConfig   `mapstructure:"session"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Maps      MapsConfig      `mapstructure:"maps"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
	// QueryTimeout bounds one model stream, in seconds.
	QueryTimeout int    `mapstructure:"query_timeout"`
	CORSOrigins  string `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ModelConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Name        string  `mapstructure:"name"`
	Temperature float32 `mapstructure:"temperature"`
}

type SessionConfig struct {
	MaxSessions   int           `mapstructure:"max_sessions"`
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type NATSConfig struct {
	URL     string        `mapstructure:"url"`
	Enabled bool          `mapstructure:"enabled"`
	MaxAge  time.Duration `mapstructure:"max_age"`
}

type ValkeyConfig struct {
	Addr      string        `mapstructure:"addr"`
	Enabled   bool          `mapstructure:"enabled"`
	Prefix    string        `mapstructure:"prefix"`
	ReplayTTL time.Duration `mapstructure:"replay_ttl"`
}

type MapsConfig struct {
	APIKey         string `mapstructure:"api_key"`
	SnapshotWidth  int    `mapstructure:"snapshot_width"`
	SnapshotHeight int    `mapstructure:"snapshot_height"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 120)
	v.SetDefault("server.query_timeout", 90)
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.name", "gemini-2.5-flash")
	v.SetDefault("model.temperature", 1.0)
	v.SetDefault("session.max_sessions", 1000)
	v.SetDefault("session.idle_ttl", "30m")
	v.SetDefault("session.sweep_interval", "1m")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("nats.max_age", "10m")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.enabled", true)
	v.SetDefault("valkey.prefix", "mapexplorer:")
	v.SetDefault("valkey.replay_ttl", "15m")
	v.SetDefault("maps.api_key", "")
	v.SetDefault("maps.snapshot_width", 640)
	v.SetDefault("maps.snapshot_height", 400)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MAPEXPLORER_MODEL_API_KEY → model.api_key
	v.SetEnvPrefix("MAPEXPLORER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.QueryTimeout <= 0 {
		errs = append(errs, "server.query_timeout must be positive")
	}
	if c.Model.APIKey == "" {
		errs = append(errs, "model.api_key is required")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		errs = append(errs, fmt.Sprintf("model.temperature must be 0-2, got %g", c.Model.Temperature))
	}
	if c.Session.MaxSessions < 0 {
		errs = append(errs, "session.max_sessions must not be negative")
	}
	if c.Session.IdleTTL > 0 && c.Session.SweepInterval <= 0 {
		errs = append(errs, "session.sweep_interval must be positive when session.idle_ttl is set")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Maps.APIKey != "" && (c.Maps.SnapshotWidth <= 0 || c.Maps.SnapshotWidth > 640 ||
		c.Maps.SnapshotHeight <= 0 || c.Maps.SnapshotHeight > 640) {
		errs = append(errs, "maps.snapshot_width and maps.snapshot_height must be 1-640")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
