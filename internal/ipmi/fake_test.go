package ipmi

import (
	stderrors "errors"
	"testing"

	"codeberg.org/mutker/bmcfanctl/internal/logger"
)

var errTransport = stderrors.New("transport failure")

func init() {
	logger.Init(false, false, true)
}

func testLogger() logger.Logger {
	return logger.Default()
}

type fakeCall struct {
	fn      NetFn
	payload []byte
}

type fakeStep struct {
	resp []byte
	err  error
}

// fakeChannel replays a scripted sequence of responses and records every
// command it sees.
type fakeChannel struct {
	t     *testing.T
	steps []fakeStep
	calls []fakeCall
}

func (c *fakeChannel) Send(fn NetFn, payload []byte) ([]byte, error) {
	c.calls = append(c.calls, fakeCall{fn: fn, payload: append([]byte(nil), payload...)})

	if len(c.steps) == 0 {
		c.t.Fatalf("unexpected command: netfn=0x%02x payload=%v", byte(fn), payload)
	}

	step := c.steps[0]
	c.steps = c.steps[1:]

	return step.resp, step.err
}

// recordResponse builds a Get SDR response frame.
func recordResponse(next Address, id uint16, typ RecordType, data []byte) []byte {
	resp := []byte{
		0x00,
		byte(next), byte(next >> 8),
		byte(id), byte(id >> 8),
		0x51,
		byte(typ),
		byte(len(data)),
	}

	return append(resp, data...)
}

// sensorData builds record data with a sensor descriptor at the fixed
// offsets.
func sensorData(number, sensorType byte, name string) []byte {
	data := make([]byte, sensorIDOffset)
	data[sensorNumberOffset] = number
	data[sensorTypeOffset] = sensorType

	return append(data, name...)
}

func repositoryInfoResponse(count byte) []byte {
	return []byte{0x00, count}
}

func reservationResponse(id ReservationID) []byte {
	lo, hi := id.bytes()
	return []byte{0x00, lo, hi}
}
