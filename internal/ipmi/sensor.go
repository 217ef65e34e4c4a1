package ipmi

import "codeberg.org/mutker/bmcfanctl/internal/errors"

// Reading is one raw sensor value. Valid is false when the BMC reported that
// no data is available for the sensor.
type Reading struct {
	Value byte
	Valid bool
}

// ReadSensor queries the raw reading of a sensor. A response carrying only a
// completion code means the sensor has no data; that is not an error.
func ReadSensor(channel CommandChannel, number byte) (Reading, error) {
	errFactory := errors.New()

	resp, err := channel.Send(NetFnSensorEvent, []byte{cmdGetSensorReading, number})
	if err != nil {
		return Reading{}, errFactory.Wrap(errors.ErrCommandSend, err)
	}

	if len(resp) == 0 {
		return Reading{}, errFactory.WithData(errors.ErrShortResponse, len(resp))
	}

	if len(resp) == 1 {
		return Reading{}, nil
	}

	return Reading{Value: resp[1], Valid: true}, nil
}
