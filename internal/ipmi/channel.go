package ipmi

// NetFn is the command-category selector byte of a request frame.
type NetFn byte

const (
	NetFnApp         NetFn = 0x06
	NetFnSensorEvent NetFn = 0x04
	NetFnStorage     NetFn = 0x0A
	NetFnOEM         NetFn = 0x30 // Supermicro vendor commands
)

// Storage commands (sensor data repository).
const (
	cmdGetRepositoryInfo = 0x20
	cmdReserveRepository = 0x22
	cmdGetRecord         = 0x23
)

// Sensor/event commands.
const cmdGetSensorReading = 0x2D

// App commands.
const cmdGetDeviceID = 0x01

// Supermicro OEM selectors.
const (
	oemFanModeSelector = 0x45
	oemStatusSelector  = 0x70
	oemSpeedSelector   = 0x66
)

// CommandChannel is the single capability this package consumes from the
// transport: a synchronous request/response exchange against the BMC.
// Implementations must not retry; a failed exchange fails the whole
// operation. A channel supports one in-flight command at a time.
type CommandChannel interface {
	Send(fn NetFn, payload []byte) ([]byte, error)
}

// Credentials authenticate a session against the BMC.
type Credentials struct {
	Username string
	Password string
}

// Session is an open connection to the BMC.
type Session interface {
	// Ping issues a liveness probe against the BMC.
	Ping() error

	// Channel returns the command channel for this session.
	Channel() CommandChannel

	Close() error
}

// Transport opens sessions against a BMC. Authentication and privilege
// negotiation are the transport's responsibility.
type Transport interface {
	Open(address string, creds Credentials) (Session, error)
}
