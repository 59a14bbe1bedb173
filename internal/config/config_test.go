package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Engine.Preset)
	assert.Equal(t, "UTC", cfg.Engine.Timezone)
	assert.Equal(t, 4, cfg.Planner.Concurrency)
	assert.Equal(t, []string{"cancelled"}, cfg.Planner.CancelledStatuses)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
	assert.Equal(t, "text", cfg.Output.Format)

	ec, err := cfg.RecurrenceConfig()
	require.NoError(t, err)
	assert.Equal(t, recurrence.DefaultEngineConfig.MaxSteps, ec.MaxSteps)
	assert.Equal(t, recurrence.SkipMonth, ec.MissingWeek)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, "recurctl.yaml", `
engine:
  preset: low_memory
  horizon_years: 3
  missing_week: stop
  timezone: Europe/Berlin
planner:
  concurrency: 8
  cancelled_statuses: [cancelled, declined]
log:
  level: debug
output:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.Equal(t, []string{"cancelled", "declined"}, cfg.Planner.CancelledStatuses)
	assert.Equal(t, "json", cfg.Output.Format)

	ec, err := cfg.RecurrenceConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, ec.HorizonYears)
	assert.Equal(t, recurrence.StopSeries, ec.MissingWeek)
	assert.Equal(t, recurrence.LowMemoryConfig.CacheConfig, ec.CacheConfig)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoad_TOMLFile(t *testing.T) {
	path := writeConfig(t, "recurctl.toml", `
[engine]
preset = "no_cache"
max_steps = 500
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	ec, err := cfg.RecurrenceConfig()
	require.NoError(t, err)
	assert.False(t, ec.CacheEnabled)
	assert.Equal(t, 500, ec.MaxSteps)
}

func TestLoad_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RECURCTL_LOG_LEVEL", "warn")
	t.Setenv("RECURCTL_ENGINE_PRESET", "high_performance")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel())
	assert.Equal(t, "high_performance", cfg.Engine.Preset)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Engine:  EngineConfig{Preset: "default", MissingWeek: "skip", Timezone: "UTC"},
			Planner: PlannerConfig{Concurrency: 1},
			Log:     LogConfig{Level: "info"},
			Output:  OutputConfig{Format: "text"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown preset", func(c *Config) { c.Engine.Preset = "turbo" }, "engine.preset"},
		{"negative horizon", func(c *Config) { c.Engine.HorizonYears = -1 }, "engine.horizon_years"},
		{"negative scan", func(c *Config) { c.Engine.WeeklyScanDays = -1 }, "engine.weekly_scan_days"},
		{"negative steps", func(c *Config) { c.Engine.MaxSteps = -1 }, "engine.max_steps"},
		{"missing week", func(c *Config) { c.Engine.MissingWeek = "panic" }, "engine.missing_week"},
		{"timezone", func(c *Config) { c.Engine.Timezone = "Mars/Olympus" }, "engine.timezone"},
		{"concurrency", func(c *Config) { c.Planner.Concurrency = 0 }, "planner.concurrency"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"output", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
