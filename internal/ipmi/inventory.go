package ipmi

import "codeberg.org/mutker/bmcfanctl/internal/logger"

// SensorTypeTemperature is the sensor type byte for temperature sensors.
const SensorTypeTemperature = 0x01

// Fixed offsets into the record data of full and compact sensor records.
const (
	sensorNumberOffset = 2
	sensorTypeOffset   = 7
	sensorIDOffset     = 43
)

// Inventory collects temperature sensor readings from the BMC sensor
// repository.
type Inventory struct {
	channel CommandChannel
	log     logger.Logger
}

func NewInventory(channel CommandChannel, log logger.Logger) *Inventory {
	return &Inventory{
		channel: channel,
		log:     log,
	}
}

// Collect walks the repository and returns a reading for every temperature
// sensor, keyed by the sensor's ID string. The map is rebuilt from scratch on
// every call; duplicate ID strings overwrite earlier entries.
func (inv *Inventory) Collect() (map[string]Reading, error) {
	readings := make(map[string]Reading)

	walker := NewWalker(inv.channel, inv.log)
	for {
		record, ok := walker.Next()
		if !ok {
			break
		}

		if len(record.Data) <= sensorTypeOffset {
			inv.log.Debug().Uint16("record_id", record.ID).Msg("Record too short for a sensor descriptor")
			continue
		}

		if record.Data[sensorTypeOffset] != SensorTypeTemperature {
			continue
		}

		if len(record.Data) <= sensorIDOffset {
			inv.log.Debug().Uint16("record_id", record.ID).Msg("Temperature record too short for an ID string")
			continue
		}

		number := record.Data[sensorNumberOffset]
		name := string(record.Data[sensorIDOffset:])

		reading, err := ReadSensor(inv.channel, number)
		if err != nil {
			return nil, err
		}

		inv.log.Debug().
			Str("sensor", name).
			Uint8("sensor_number", number).
			Uint8("reading", reading.Value).
			Bool("no_data", !reading.Valid).
			Msg("Temperature sensor read")

		readings[name] = reading
	}

	if err := walker.Err(); err != nil {
		return nil, err
	}

	return readings, nil
}
