// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Driver  DriverConfig  `mapstructure:"driver" yaml:"driver"`
	Trace   TraceConfig   `mapstructure:"trace" yaml:"trace"`
	Planner PlannerConfig `mapstructure:"planner" yaml:"planner"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// DriverConfig configures the action executor. Dry-run is the default
// posture; execution mode must be requested explicitly.
type DriverConfig struct {
	WindowTitle  string        `mapstructure:"window_title" yaml:"window_title"`
	AllowActions []string      `mapstructure:"allow_actions" yaml:"allow_actions"`
	DryRun       bool          `mapstructure:"dry_run" yaml:"dry_run"`
	ClickDelay   time.Duration `mapstructure:"click_delay" yaml:"click_delay"`
	SettleDelay  time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	TypeInterval time.Duration `mapstructure:"type_interval" yaml:"type_interval"`
}

// TraceConfig locates the append-only trace log and the optional Postgres
// archive for offline analysis.
type TraceConfig struct {
	Dir        string `mapstructure:"dir" yaml:"dir"`
	ArchiveDSN string `mapstructure:"archive_dsn" yaml:"-"`
}

// PlannerConfig configures the vision-language model boundary and the
// forbidden-intent predicate.
type PlannerConfig struct {
	Endpoint       string        `mapstructure:"endpoint" yaml:"endpoint"`
	Model          string        `mapstructure:"model" yaml:"model"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	ForbiddenVerbs []string      `mapstructure:"forbidden_verbs" yaml:"forbidden_verbs"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "warden-cli")
	v.SetDefault("logger.log_file", "warden.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Driver --
	v.SetDefault("driver.window_title", "")
	v.SetDefault("driver.allow_actions", []string{"click", "type", "hotkey", "noop"})
	v.SetDefault("driver.dry_run", true)
	v.SetDefault("driver.click_delay", 50*time.Millisecond)
	v.SetDefault("driver.settle_delay", 150*time.Millisecond)
	v.SetDefault("driver.type_interval", 10*time.Millisecond)

	// -- Trace --
	v.SetDefault("trace.dir", "traces")

	// -- Planner --
	v.SetDefault("planner.endpoint", "http://localhost:11434")
	v.SetDefault("planner.model", "llama3.2-vision")
	v.SetDefault("planner.timeout", 2*time.Minute)
	v.SetDefault("planner.forbidden_verbs", []string{
		"delete", "format", "wipe", "shutdown", "erase", "ransom",
	})
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with the defaults above.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object
// and validates it.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Trace.Dir == "" {
		return fmt.Errorf("trace.dir is a required configuration field")
	}
	if c.Driver.ClickDelay < 0 {
		return fmt.Errorf("driver.click_delay must not be negative")
	}
	if c.Driver.SettleDelay < 0 {
		return fmt.Errorf("driver.settle_delay must not be negative")
	}
	for _, a := range c.Driver.AllowActions {
		switch strings.ToLower(a) {
		case "click", "type", "hotkey", "noop":
		default:
			return fmt.Errorf("driver.allow_actions contains unknown action kind %q", a)
		}
	}
	if c.Planner.Timeout <= 0 {
		return fmt.Errorf("planner.timeout must be a positive duration")
	}
	return nil
}
