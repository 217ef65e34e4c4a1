package ipmi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectFiltersTemperatureSensors(t *testing.T) {
	inlet := sensorData(0x0B, SensorTypeTemperature, "Inlet")
	fan := sensorData(0x21, 0x04, "FAN1")

	channel := &fakeChannel{t: t, steps: []fakeStep{
		{resp: repositoryInfoResponse(2)},
		{resp: reservationResponse(0x1234)},
		{resp: recordResponse(0x0028, 1, RecordTypeFull, inlet)},
		{resp: []byte{0x00, 55}}, // reading for sensor 0x0B
		{resp: recordResponse(ZeroAddress, 2, RecordTypeCompact, fan)},
	}}

	inv := NewInventory(channel, testLogger())

	readings, err := inv.Collect()
	require.NoError(t, err)

	require.Len(t, readings, 1)
	reading, ok := readings["Inlet"]
	require.True(t, ok)
	assert.True(t, reading.Valid)
	assert.Equal(t, byte(55), reading.Value)

	// The reading query names the sensor number from the record data.
	require.Len(t, channel.calls, 5)
	assert.Equal(t, NetFnSensorEvent, channel.calls[3].fn)
	assert.Equal(t, []byte{cmdGetSensorReading, 0x0B}, channel.calls[3].payload)
}

func TestCollectNoDataReading(t *testing.T) {
	cpu := sensorData(0x01, SensorTypeTemperature, "CPU Temp")

	channel := &fakeChannel{t: t, steps: []fakeStep{
		{resp: repositoryInfoResponse(1)},
		{resp: reservationResponse(0x0001)},
		{resp: recordResponse(0x0000, 1, RecordTypeFull, cpu)},
		{resp: []byte{0x00}}, // completion code only: no data available
	}}

	inv := NewInventory(channel, testLogger())

	readings, err := inv.Collect()
	require.NoError(t, err)

	reading, ok := readings["CPU Temp"]
	require.True(t, ok)
	assert.False(t, reading.Valid)
}

func TestCollectDuplicateNamesLastWriteWins(t *testing.T) {
	first := sensorData(0x01, SensorTypeTemperature, "Ambient")
	second := sensorData(0x02, SensorTypeTemperature, "Ambient")

	channel := &fakeChannel{t: t, steps: []fakeStep{
		{resp: repositoryInfoResponse(2)},
		{resp: reservationResponse(0x0001)},
		{resp: recordResponse(0x0010, 1, RecordTypeFull, first)},
		{resp: []byte{0x00, 20}},
		{resp: recordResponse(0x0010, 2, RecordTypeFull, second)},
		{resp: []byte{0x00, 30}},
	}}

	inv := NewInventory(channel, testLogger())

	readings, err := inv.Collect()
	require.NoError(t, err)

	require.Len(t, readings, 1)
	assert.Equal(t, byte(30), readings["Ambient"].Value)
}

func TestCollectSkipsShortRecords(t *testing.T) {
	// A record that cannot carry a descriptor is skipped, not fatal.
	stub := []byte{0x00, 0x01}

	channel := &fakeChannel{t: t, steps: []fakeStep{
		{resp: repositoryInfoResponse(1)},
		{resp: reservationResponse(0x0001)},
		{resp: recordResponse(0x0000, 1, RecordTypeCompact, stub)},
	}}

	inv := NewInventory(channel, testLogger())

	readings, err := inv.Collect()
	require.NoError(t, err)
	assert.Empty(t, readings)
}
