package telemetry_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/bmcfanctl/internal/logger"
	"codeberg.org/mutker/bmcfanctl/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Init(false, false, true)
}

func newTestRepository(t *testing.T) (telemetry.Repository, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "telemetry.db")

	repo, err := telemetry.NewRepository(telemetry.Config{DBPath: dbPath}, logger.Default())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return repo, dbPath
}

func TestStoreSnapshot(t *testing.T) {
	repo, dbPath := newTestRepository(t)

	snapshot := &telemetry.Snapshot{
		Timestamp:       time.Unix(1700000000, 0),
		FanMode:         "FULL_SPEED",
		CPUSpeed:        40,
		PeripheralSpeed: 30,
		Readings: map[string]telemetry.SensorValue{
			"Inlet":    {Value: 24, Valid: true},
			"CPU Temp": {Valid: false},
		},
	}

	require.NoError(t, repo.Store(context.Background(), snapshot))

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var mode string
	var cpuSpeed int
	err = db.QueryRow("SELECT mode, cpu_speed FROM fan_state WHERE timestamp = ?", 1700000000).
		Scan(&mode, &cpuSpeed)
	require.NoError(t, err)
	assert.Equal(t, "FULL_SPEED", mode)
	assert.Equal(t, 40, cpuSpeed)

	var inlet sql.NullInt64
	err = db.QueryRow("SELECT reading FROM readings WHERE timestamp = ? AND sensor = ?", 1700000000, "Inlet").
		Scan(&inlet)
	require.NoError(t, err)
	assert.True(t, inlet.Valid)
	assert.EqualValues(t, 24, inlet.Int64)

	var cpu sql.NullInt64
	err = db.QueryRow("SELECT reading FROM readings WHERE timestamp = ? AND sensor = ?", 1700000000, "CPU Temp").
		Scan(&cpu)
	require.NoError(t, err)
	assert.False(t, cpu.Valid, "no-data readings are stored as NULL")
}

func TestStoreUpsertsOnSameTimestamp(t *testing.T) {
	repo, dbPath := newTestRepository(t)

	ts := time.Unix(1700000000, 0)
	first := &telemetry.Snapshot{
		Timestamp: ts,
		FanMode:   "OPTIMAL",
		Readings:  map[string]telemetry.SensorValue{"Inlet": {Value: 20, Valid: true}},
	}
	second := &telemetry.Snapshot{
		Timestamp: ts,
		FanMode:   "FULL_SPEED",
		Readings:  map[string]telemetry.SensorValue{"Inlet": {Value: 22, Valid: true}},
	}

	ctx := context.Background()
	require.NoError(t, repo.Store(ctx, first))
	require.NoError(t, repo.Store(ctx, second))

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM readings").Scan(&count))
	assert.Equal(t, 1, count)

	var reading sql.NullInt64
	require.NoError(t, db.QueryRow("SELECT reading FROM readings").Scan(&reading))
	assert.EqualValues(t, 22, reading.Int64)
}
