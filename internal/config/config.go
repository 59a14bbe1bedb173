// Package config loads recurctl settings from a file, the environment and defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. RECURCTL_LOG_LEVEL.
const EnvPrefix = "RECURCTL"

// Config represents recurctl configuration
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	Planner  PlannerConfig  `mapstructure:"planner"`
	Log      LogConfig      `mapstructure:"log"`
	Output   OutputConfig   `mapstructure:"output"`
	Database DatabaseConfig `mapstructure:"database"`
}

// EngineConfig selects a recurrence engine preset and overrides parts of it
type EngineConfig struct {
	Preset         string `mapstructure:"preset"` // default, high_performance, low_memory, no_cache
	HorizonYears   int    `mapstructure:"horizon_years"`
	WeeklyScanDays int    `mapstructure:"weekly_scan_days"`
	MaxSteps       int    `mapstructure:"max_steps"`
	MissingWeek    string `mapstructure:"missing_week"` // skip or stop
	Timezone       string `mapstructure:"timezone"`
}

// PlannerConfig represents conflict planning settings
type PlannerConfig struct {
	Concurrency       int      `mapstructure:"concurrency"`
	CancelledStatuses []string `mapstructure:"cancelled_statuses"`
}

// LogConfig represents logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// OutputConfig represents how commands print results
type OutputConfig struct {
	Format string `mapstructure:"format"` // text or json
}

// DatabaseConfig points plan and check at PostgreSQL instead of a JSON file
type DatabaseConfig struct {
	URL     string `mapstructure:"url"`
	Migrate bool   `mapstructure:"migrate"`
}

var presets = map[string]recurrence.EngineConfig{
	"default":          recurrence.DefaultEngineConfig,
	"high_performance": recurrence.HighPerformanceConfig,
	"low_memory":       recurrence.LowMemoryConfig,
	"no_cache":         recurrence.DisabledCacheConfig,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.preset", "default")
	v.SetDefault("engine.horizon_years", 0)
	v.SetDefault("engine.weekly_scan_days", 0)
	v.SetDefault("engine.max_steps", 0)
	v.SetDefault("engine.missing_week", "skip")
	v.SetDefault("engine.timezone", "UTC")
	v.SetDefault("planner.concurrency", 4)
	v.SetDefault("planner.cancelled_statuses", []string{"cancelled"})
	v.SetDefault("log.level", "info")
	v.SetDefault("output.format", "text")
	v.SetDefault("database.url", "")
	v.SetDefault("database.migrate", false)
}

// Load reads configuration from configPath, or from recurctl.{yaml,toml,json} in the
// working directory or $HOME/.config/recurctl when configPath is empty. A missing
// default file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("recurctl")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/recurctl")
	}

	// Read environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, ok := presets[c.Engine.Preset]; !ok {
		return fmt.Errorf("engine.preset %q is unknown", c.Engine.Preset)
	}
	if c.Engine.HorizonYears < 0 {
		return fmt.Errorf("engine.horizon_years must not be negative")
	}
	if c.Engine.WeeklyScanDays < 0 {
		return fmt.Errorf("engine.weekly_scan_days must not be negative")
	}
	if c.Engine.MaxSteps < 0 {
		return fmt.Errorf("engine.max_steps must not be negative")
	}
	if _, err := c.missingWeek(); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Engine.Timezone); err != nil {
		return fmt.Errorf("engine.timezone: %w", err)
	}
	if c.Planner.Concurrency < 1 {
		return fmt.Errorf("planner.concurrency must be positive")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("output.format must be text or json, got %q", c.Output.Format)
	}
	return nil
}

func (c *Config) missingWeek() (recurrence.MissingWeekPolicy, error) {
	switch strings.ToLower(c.Engine.MissingWeek) {
	case "skip", "":
		return recurrence.SkipMonth, nil
	case "stop":
		return recurrence.StopSeries, nil
	}
	return recurrence.SkipMonth, fmt.Errorf("engine.missing_week must be skip or stop, got %q", c.Engine.MissingWeek)
}

// RecurrenceConfig returns the engine preset with the configured overrides applied.
func (c *Config) RecurrenceConfig() (recurrence.EngineConfig, error) {
	ec, ok := presets[c.Engine.Preset]
	if !ok {
		return recurrence.EngineConfig{}, fmt.Errorf("engine.preset %q is unknown", c.Engine.Preset)
	}
	if c.Engine.HorizonYears > 0 {
		ec.HorizonYears = c.Engine.HorizonYears
	}
	if c.Engine.WeeklyScanDays > 0 {
		ec.WeeklyScanDays = c.Engine.WeeklyScanDays
	}
	if c.Engine.MaxSteps > 0 {
		ec.MaxSteps = c.Engine.MaxSteps
	}
	policy, err := c.missingWeek()
	if err != nil {
		return recurrence.EngineConfig{}, err
	}
	ec.MissingWeek = policy
	return ec, nil
}

// Location returns the time zone used to interpret times without an offset.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Engine.Timezone)
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
