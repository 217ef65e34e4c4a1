package ipmi

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"codeberg.org/mutker/bmcfanctl/internal/errors"
	"codeberg.org/mutker/bmcfanctl/internal/logger"
)

const defaultIPMIToolPath = "ipmitool"

// ipmitoolTransport opens LAN sessions by shelling out to ipmitool. Session
// state (authentication, privilege negotiation) is ipmitool's problem; each
// Send is one `ipmitool raw` invocation.
type ipmitoolTransport struct {
	path string
	log  logger.Logger
}

// NewIPMIToolTransport returns a Transport backed by the ipmitool binary.
func NewIPMIToolTransport(log logger.Logger) Transport {
	return &ipmitoolTransport{
		path: defaultIPMIToolPath,
		log:  log,
	}
}

func (t *ipmitoolTransport) Open(address string, creds Credentials) (Session, error) {
	return &ipmitoolSession{
		path:    t.path,
		address: address,
		creds:   creds,
		log:     t.log,
	}, nil
}

type ipmitoolSession struct {
	path    string
	address string
	creds   Credentials
	log     logger.Logger
}

// Ping probes liveness with Get Device ID.
func (s *ipmitoolSession) Ping() error {
	_, err := s.Send(NetFnApp, []byte{cmdGetDeviceID})
	return err
}

func (s *ipmitoolSession) Channel() CommandChannel {
	return s
}

func (s *ipmitoolSession) Close() error {
	return nil
}

func (s *ipmitoolSession) Send(fn NetFn, payload []byte) ([]byte, error) {
	errFactory := errors.New()

	args := []string{
		"-I", "lanplus",
		"-H", s.address,
		"-U", s.creds.Username,
		"-P", s.creds.Password,
		"raw", fmt.Sprintf("0x%02x", byte(fn)),
	}
	for _, b := range payload {
		args = append(args, fmt.Sprintf("0x%02x", b))
	}

	s.log.Debug().
		Uint8("netfn", byte(fn)).
		Int("payload_len", len(payload)).
		Msg("Sending raw command")

	out, err := exec.Command(s.path, args...).Output()
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrCommandSend, err)
	}

	data, err := parseRawOutput(string(out))
	if err != nil {
		return nil, err
	}

	// ipmitool strips the completion code from successful responses; the
	// protocol layer expects it as byte 0, so put it back.
	resp := make([]byte, 0, len(data)+1)
	resp = append(resp, 0x00)
	resp = append(resp, data...)

	return resp, nil
}

// parseRawOutput decodes the space-separated hex bytes ipmitool prints for a
// raw command response.
func parseRawOutput(out string) ([]byte, error) {
	fields := strings.Fields(out)

	data := make([]byte, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseUint(field, 16, 8)
		if err != nil {
			return nil, errors.New().WithData(errors.ErrCommandSend, field)
		}
		data = append(data, byte(v))
	}

	return data, nil
}
