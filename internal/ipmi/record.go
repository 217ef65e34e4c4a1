package ipmi

import (
	"encoding/binary"

	"codeberg.org/mutker/bmcfanctl/internal/errors"
)

// Address identifies a position within the sensor data repository.
type Address uint16

// ZeroAddress marks the start of the repository and doubles as the
// walk-termination sentinel.
const ZeroAddress Address = 0x0000

func (a Address) bytes() (lo, hi byte) {
	return byte(a), byte(a >> 8)
}

// ReservationID is the opaque token required by every paged-retrieval
// request within a single repository walk.
type ReservationID uint16

func (r ReservationID) bytes() (lo, hi byte) {
	return byte(r), byte(r >> 8)
}

// RecordType identifies the layout of a sensor data record.
type RecordType byte

const (
	RecordTypeFull    RecordType = 0x01
	RecordTypeCompact RecordType = 0x02
)

func (t RecordType) supported() bool {
	return t == RecordTypeFull || t == RecordTypeCompact
}

// Record is one decoded sensor data repository record.
type Record struct {
	NextAddress Address
	ID          uint16
	Version     byte
	Type        RecordType
	Length      byte
	Data        []byte
}

const recordHeaderLen = 8

// DecodeRecord parses a Get SDR response. Layout: byte 0 completion code,
// bytes 1:3 next address, 3:5 record ID, 5 SDR version, 6 record type,
// 7 record length, 8: record data.
//
// Rejections come back as errors.ErrRecordTruncated, errors.ErrLengthMismatch
// or errors.ErrUnsupportedRecordType. On ErrUnsupportedRecordType the
// returned record still carries a decoded header so the caller can follow
// NextAddress; the other rejections mean the response framing itself is not
// trustworthy.
func DecodeRecord(resp []byte) (Record, error) {
	errFactory := errors.New()

	if len(resp) < recordHeaderLen {
		return Record{}, errFactory.WithData(errors.ErrRecordTruncated, len(resp))
	}

	record := Record{
		NextAddress: Address(binary.LittleEndian.Uint16(resp[1:3])),
		ID:          binary.LittleEndian.Uint16(resp[3:5]),
		Version:     resp[5],
		Type:        RecordType(resp[6]),
		Length:      resp[7],
		Data:        resp[recordHeaderLen:],
	}

	if len(record.Data) != int(record.Length) {
		return Record{}, errFactory.WithData(errors.ErrLengthMismatch, struct {
			Declared int
			Actual   int
		}{
			Declared: int(record.Length),
			Actual:   len(record.Data),
		})
	}

	if !record.Type.supported() {
		return record, errFactory.WithData(errors.ErrUnsupportedRecordType, record.Type)
	}

	return record, nil
}
