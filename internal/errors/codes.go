package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrUnavailable     ErrorCode = "service_unavailable"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Session errors
	ErrConnectionExhausted ErrorCode = "connection_exhausted"
	ErrSessionOpen         ErrorCode = "session_open_failed"
	ErrCommandSend         ErrorCode = "command_send_failed"
	ErrShortResponse       ErrorCode = "short_response"

	// Repository walk errors
	ErrLengthMismatch        ErrorCode = "record_length_mismatch"
	ErrUnsupportedRecordType ErrorCode = "unsupported_record_type"
	ErrRecordTruncated       ErrorCode = "record_truncated"
	ErrReservationFailed     ErrorCode = "reservation_failed"
	ErrRepositoryInfoFailed  ErrorCode = "repository_info_failed"

	// Fan control errors
	ErrUnrecognizedFanMode ErrorCode = "unrecognized_fan_mode"
	ErrInvalidFanMode      ErrorCode = "invalid_fan_mode"
	ErrInvalidFanZone      ErrorCode = "invalid_fan_zone"

	// Telemetry errors
	ErrInitTelemetry ErrorCode = "init_telemetry_failed"

	// Operation errors
	ErrOperationFailed ErrorCode = "operation_failed"
	ErrTimeout         ErrorCode = "operation_timeout"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:              "Internal error occurred",
	ErrInvalidArgument:       "Invalid argument provided",
	ErrUnavailable:           "Service unavailable",
	ErrInvalidConfig:         "Invalid configuration",
	ErrBindFlags:             "Failed to bind flags",
	ErrReadConfig:            "Failed to read configuration",
	ErrInvalidInterval:       "Invalid interval value",
	ErrInvalidLogLevel:       "Invalid log level",
	ErrInitFailed:            "Initialization failed",
	ErrShutdownFailed:        "Shutdown failed",
	ErrConnectionExhausted:   "Connection retries exhausted",
	ErrSessionOpen:           "Failed to open BMC session",
	ErrCommandSend:           "Failed to send command",
	ErrShortResponse:         "Response shorter than expected",
	ErrLengthMismatch:        "Record data length does not match record header",
	ErrUnsupportedRecordType: "Unsupported sensor record type",
	ErrRecordTruncated:       "Record response truncated",
	ErrReservationFailed:     "Failed to reserve sensor repository",
	ErrRepositoryInfoFailed:  "Failed to read sensor repository info",
	ErrUnrecognizedFanMode:   "Unrecognized fan mode reported by BMC",
	ErrInvalidFanMode:        "Invalid fan mode",
	ErrInvalidFanZone:        "Invalid fan zone",
	ErrInitTelemetry:         "Failed to initialize telemetry",
	ErrOperationFailed:       "Operation failed",
	ErrTimeout:               "Operation timed out",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
