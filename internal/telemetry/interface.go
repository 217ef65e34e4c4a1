package telemetry

import (
	"context"
	"time"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

// Snapshot is one monitor-loop observation of the BMC's thermal state.
type Snapshot struct {
	Timestamp       time.Time
	FanMode         string
	CPUSpeed        int
	PeripheralSpeed int
	Readings        map[string]SensorValue
}

// SensorValue is a raw sensor reading; Valid is false when the BMC reported
// no data for the sensor.
type SensorValue struct {
	Value int
	Valid bool
}
