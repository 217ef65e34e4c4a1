package ipmi

import (
	"fmt"
	"time"

	"codeberg.org/mutker/bmcfanctl/internal/errors"
	"codeberg.org/mutker/bmcfanctl/internal/logger"
)

// FanMode is a BMC fan-control mode. FullSpeed is the only mode under which
// direct per-zone speed writes are meaningful.
type FanMode byte

const (
	FanModeStandard    FanMode = 0x00
	FanModeFullSpeed   FanMode = 0x01
	FanModeOptimal     FanMode = 0x02
	FanModePUE2Optimal FanMode = 0x03
	FanModeHeavyIO     FanMode = 0x04
	FanModePUE3Optimal FanMode = 0x05
)

func (m FanMode) valid() bool {
	return m <= FanModePUE3Optimal
}

func (m FanMode) String() string {
	switch m {
	case FanModeStandard:
		return "STANDARD"
	case FanModeFullSpeed:
		return "FULL_SPEED"
	case FanModeOptimal:
		return "OPTIMAL"
	case FanModePUE2Optimal:
		return "PUE2_OPTIMAL"
	case FanModeHeavyIO:
		return "HEAVY_IO"
	case FanModePUE3Optimal:
		return "PUE3_OPTIMAL"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02X)", byte(m))
	}
}

// DecodeFanMode maps a mode byte reported by the BMC to a FanMode. Unknown
// bytes are an error, never a default member.
func DecodeFanMode(b byte) (FanMode, error) {
	mode := FanMode(b)
	if !mode.valid() {
		return 0, errors.New().WithData(errors.ErrUnrecognizedFanMode, b)
	}

	return mode, nil
}

// Zone is a physically grouped set of fans controllable as a unit.
type Zone byte

const (
	ZoneCPU        Zone = 0x00
	ZonePeripheral Zone = 0x01
)

func (z Zone) valid() bool {
	return z == ZoneCPU || z == ZonePeripheral
}

func (z Zone) String() string {
	switch z {
	case ZoneCPU:
		return "CPU"
	case ZonePeripheral:
		return "PERIPHERAL"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02X)", byte(z))
	}
}

// ZoneSpeed pairs a zone with a duty-cycle value. SetSpeeds applies entries
// in slice order.
type ZoneSpeed struct {
	Zone  Zone
	Speed byte
}

// ZoneWrite is the BMC response to one zone speed write.
type ZoneWrite struct {
	Zone     Zone
	Response []byte
}

const defaultSettleDelay = time.Second

// FanController drives the vendor fan-control commands over a command
// channel.
type FanController struct {
	channel CommandChannel
	log     logger.Logger
	settle  time.Duration
	sleep   func(time.Duration)
}

func NewFanController(channel CommandChannel, log logger.Logger) *FanController {
	return &FanController{
		channel: channel,
		log:     log,
		settle:  defaultSettleDelay,
		sleep:   time.Sleep,
	}
}

// GetMode queries the current fan-control mode.
func (fc *FanController) GetMode() (FanMode, error) {
	errFactory := errors.New()

	resp, err := fc.channel.Send(NetFnOEM, []byte{oemFanModeSelector, 0x00})
	if err != nil {
		return 0, errFactory.Wrap(errors.ErrCommandSend, err)
	}
	if len(resp) < 2 {
		return 0, errFactory.WithData(errors.ErrShortResponse, len(resp))
	}

	return DecodeFanMode(resp[1])
}

// SetMode writes the fan-control mode.
func (fc *FanController) SetMode(mode FanMode) error {
	errFactory := errors.New()

	if !mode.valid() {
		return errFactory.WithData(errors.ErrInvalidFanMode, byte(mode))
	}

	fc.log.Info().Str("mode", mode.String()).Msg("Setting fan mode")

	if _, err := fc.channel.Send(NetFnOEM, []byte{oemFanModeSelector, 0x01, byte(mode)}); err != nil {
		return errFactory.Wrap(errors.ErrCommandSend, err)
	}

	return nil
}

// SetSpeeds writes per-zone fan speeds, in slice order. The BMC rejects
// speed writes while it auto-manages fans, so the controller is forced into
// FullSpeed mode first when it is in any other mode, followed by a settle
// delay: the mode transition is not guaranteed to be immediate.
//
// Zone writes are not atomic. On failure the responses gathered so far are
// returned alongside the error; earlier zones keep their new speed.
func (fc *FanController) SetSpeeds(speeds []ZoneSpeed) ([]ZoneWrite, error) {
	errFactory := errors.New()

	for _, zs := range speeds {
		if !zs.Zone.valid() {
			return nil, errFactory.WithData(errors.ErrInvalidFanZone, byte(zs.Zone))
		}
	}

	mode, err := fc.GetMode()
	if err != nil {
		return nil, err
	}

	if mode != FanModeFullSpeed {
		fc.log.Warn().Str("mode", mode.String()).Msg("Fan control mode is not manual, forcing full speed")
		if err := fc.SetMode(FanModeFullSpeed); err != nil {
			return nil, err
		}
	}

	fc.sleep(fc.settle)

	writes := make([]ZoneWrite, 0, len(speeds))
	for _, zs := range speeds {
		fc.log.Info().
			Str("zone", zs.Zone.String()).
			Uint8("speed", zs.Speed).
			Msg("Setting fan speed")

		resp, err := fc.channel.Send(NetFnOEM, []byte{oemStatusSelector, oemSpeedSelector, 0x01, byte(zs.Zone), zs.Speed})
		if err != nil {
			return writes, errFactory.Wrap(errors.ErrCommandSend, err)
		}

		writes = append(writes, ZoneWrite{Zone: zs.Zone, Response: resp})
	}

	return writes, nil
}
