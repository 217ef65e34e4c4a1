package ipmi

import (
	"time"

	"codeberg.org/mutker/bmcfanctl/internal/errors"
	"codeberg.org/mutker/bmcfanctl/internal/logger"
)

// connState tracks the establishment state machine.
type connState int

const (
	stateConnecting connState = iota
	stateProbing
	stateRetrying
	stateReady
	stateFailed
)

// Establisher opens a BMC session and verifies liveness before handing out
// its command channel. The probe retry loop here is the only retry policy in
// the package; individual commands are never retried.
type Establisher struct {
	transport    Transport
	log          logger.Logger
	retryTimeout time.Duration
	retryCount   int
	sleep        func(time.Duration)
}

// NewEstablisher configures session establishment. retryCount bounds the
// number of probe retries; a negative value retries without limit.
func NewEstablisher(transport Transport, retryTimeout time.Duration, retryCount int, log logger.Logger) *Establisher {
	return &Establisher{
		transport:    transport,
		log:          log,
		retryTimeout: retryTimeout,
		retryCount:   retryCount,
		sleep:        time.Sleep,
	}
}

// Establish opens a session and probes it until the BMC answers. The session
// itself is opened once; probe failures only repeat the probe. When the
// retry budget runs out the session is closed and ErrConnectionExhausted is
// returned.
func (e *Establisher) Establish(address string, creds Credentials) (CommandChannel, error) {
	errFactory := errors.New()

	var session Session
	retries := e.retryCount
	state := stateConnecting

	for {
		switch state {
		case stateConnecting:
			s, err := e.transport.Open(address, creds)
			if err != nil {
				return nil, errFactory.Wrap(errors.ErrSessionOpen, err)
			}
			session = s
			state = stateProbing

		case stateProbing:
			err := session.Ping()
			if err == nil {
				state = stateReady
				continue
			}

			e.log.Error().Err(err).Str("address", address).Msg("Liveness probe failed")

			if retries == 0 {
				state = stateFailed
				continue
			}
			retries--
			state = stateRetrying

		case stateRetrying:
			e.log.Warn().
				Dur("retry_timeout", e.retryTimeout).
				Msg("Retrying liveness probe")
			e.sleep(e.retryTimeout)
			state = stateProbing

		case stateReady:
			return session.Channel(), nil

		case stateFailed:
			if err := session.Close(); err != nil {
				e.log.Debug().Err(err).Msg("Failed to close session")
			}

			return nil, errFactory.New(errors.ErrConnectionExhausted)
		}
	}
}
