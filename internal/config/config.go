package config

import "time"

// Config represents the complete application configuration.
// Values are layered: built-in defaults, then the user config file
// (discovered via app identity), then KWRADAR_* environment variables.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Gate    GateConfig    `mapstructure:"gate" yaml:"gate"`
	Collect CollectConfig `mapstructure:"collect" yaml:"collect"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Health  HealthConfig  `mapstructure:"health" yaml:"health"`
	Workers int           `mapstructure:"workers" yaml:"workers"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver" yaml:"driver"`
	Path      string `mapstructure:"path" yaml:"path"`
	URL       string `mapstructure:"url" yaml:"url"`
	AuthToken string `mapstructure:"auth_token" yaml:"auth_token,omitempty"`
}

// GateConfig configures the shared admission controller.
// Zero values for the hour/day caps mean unlimited.
type GateConfig struct {
	BaseInterval     time.Duration `mapstructure:"base_interval" yaml:"base_interval"`
	MaxInterval      time.Duration `mapstructure:"max_interval" yaml:"max_interval"`
	MaxPerMinute     int           `mapstructure:"max_per_minute" yaml:"max_per_minute"`
	MaxPerHour       int           `mapstructure:"max_per_hour" yaml:"max_per_hour"`
	MaxPerDay        int           `mapstructure:"max_per_day" yaml:"max_per_day"`
	ThrottleCooldown time.Duration `mapstructure:"throttle_cooldown" yaml:"throttle_cooldown"`
}

// CollectConfig contains collector configuration.
type CollectConfig struct {
	Sources  []string      `mapstructure:"sources" yaml:"sources"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Language string        `mapstructure:"language" yaml:"language"`
}

// LoggingConfig contains logging configuration.
// Profiles follow the gofulmen progressive logging standard:
// SIMPLE for CLI usage, STRUCTURED for the stats server.
type LoggingConfig struct {
	// Level controls the minimum log level.
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`

	// Profile selects the logging complexity level.
	Profile string `mapstructure:"profile" yaml:"profile"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}
