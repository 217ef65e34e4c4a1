package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/bmcfanctl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetArgs(t *testing.T, args ...string) {
	t.Helper()
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = append([]string{"bmcfanctl"}, args...)
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bmcfanctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	resetArgs(t)

	configPath := writeConfigFile(t, `
host = "10.0.0.5"
username = "admin"
password = "secret"
interval = 10
retry_timeout = 3
retry_count = 4
mode = "optimal"
cpu_speed = 45
peripheral_speed = 35
monitor = true
telemetry = true
database = "/path/to/telemetry.db"
mqtt_broker = "tcp://broker:1883"
`)
	t.Setenv("BMCFANCTL_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.Host)
	assert.Equal(t, "admin", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 10, cfg.Interval)
	assert.Equal(t, 3, cfg.RetryTimeout)
	assert.Equal(t, 4, cfg.RetryCount)
	assert.Equal(t, "optimal", cfg.Mode)
	assert.Equal(t, 45, cfg.CPUSpeed)
	assert.Equal(t, 35, cfg.PeripheralSpeed)
	assert.True(t, cfg.Monitor)
	assert.True(t, cfg.Telemetry)
	assert.Equal(t, "/path/to/telemetry.db", cfg.TelemetryDB)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTTBroker)
}

func TestLoadDefaults(t *testing.T) {
	resetArgs(t)
	t.Setenv("BMCFANCTL_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Interval)
	assert.Equal(t, 5, cfg.RetryTimeout)
	assert.Equal(t, -1, cfg.RetryCount, "retries are unlimited by default")
	assert.Equal(t, config.ModeManual, cfg.Mode)
	assert.Equal(t, 30, cfg.CPUSpeed)
	assert.Equal(t, 30, cfg.PeripheralSpeed)
	assert.False(t, cfg.Monitor)
	assert.False(t, cfg.Telemetry)
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	resetArgs(t, "--mode", "heavy_io", "--cpu-speed", "60")

	configPath := writeConfigFile(t, `
mode = "standard"
cpu_speed = 20
`)
	t.Setenv("BMCFANCTL_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "heavy_io", cfg.Mode)
	assert.Equal(t, 60, cfg.CPUSpeed)
}

func TestLoadInvalidFormat(t *testing.T) {
	resetArgs(t)

	configPath := writeConfigFile(t, "This is not a valid TOML file\n")
	t.Setenv("BMCFANCTL_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadInvalidMode(t *testing.T) {
	resetArgs(t)

	configPath := writeConfigFile(t, `mode = "turbo"`)
	t.Setenv("BMCFANCTL_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestLoadInvalidInterval(t *testing.T) {
	resetArgs(t)

	configPath := writeConfigFile(t, `interval = 0`)
	t.Setenv("BMCFANCTL_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadInvalidFanSpeed(t *testing.T) {
	resetArgs(t)

	configPath := writeConfigFile(t, `cpu_speed = 150`)
	t.Setenv("BMCFANCTL_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fan speeds")
}
