package ipmi

import (
	"encoding/binary"

	"codeberg.org/mutker/bmcfanctl/internal/errors"
	"codeberg.org/mutker/bmcfanctl/internal/logger"
)

// Walker drives the reservation and paged-retrieval protocol over a command
// channel, yielding decoded records one at a time. A walker is single-use:
// the reservation it acquires is not valid across walks, so a fresh walk
// needs a fresh Walker.
type Walker struct {
	channel CommandChannel
	log     logger.Logger

	reservation ReservationID
	address     Address
	remaining   int
	started     bool
	done        bool
	err         error
}

func NewWalker(channel CommandChannel, log logger.Logger) *Walker {
	return &Walker{
		channel: channel,
		log:     log,
	}
}

// begin reads the repository record count and acquires the reservation used
// by every subsequent retrieval in this walk.
func (w *Walker) begin() error {
	errFactory := errors.New()

	info, err := w.channel.Send(NetFnStorage, []byte{cmdGetRepositoryInfo})
	if err != nil {
		return errFactory.Wrap(errors.ErrRepositoryInfoFailed, err)
	}
	if len(info) < 2 {
		return errFactory.WithData(errors.ErrRepositoryInfoFailed, len(info))
	}

	// The record count bounds the walk; records can still be skipped, so it
	// is an upper limit on retrievals, not a promise of yields.
	w.remaining = int(info[1])

	resp, err := w.channel.Send(NetFnStorage, []byte{cmdReserveRepository})
	if err != nil {
		return errFactory.Wrap(errors.ErrReservationFailed, err)
	}
	if len(resp) < 3 {
		return errFactory.WithData(errors.ErrReservationFailed, len(resp))
	}

	w.reservation = ReservationID(binary.LittleEndian.Uint16(resp[1:3]))
	w.address = ZeroAddress

	w.log.Debug().
		Int("record_count", w.remaining).
		Uint16("reservation_id", uint16(w.reservation)).
		Msg("Repository walk started")

	return nil
}

func (w *Walker) retrieve() ([]byte, error) {
	resLo, resHi := w.reservation.bytes()
	addrLo, addrHi := w.address.bytes()

	return w.channel.Send(NetFnStorage, []byte{cmdGetRecord, resLo, resHi, addrLo, addrHi, 0x00, 0xFF})
}

// Next returns the next accepted record. It returns false when the walk is
// over, whether by reaching the repository end, exhausting the record count,
// hitting an untrustworthy frame, or failing; check Err afterwards.
func (w *Walker) Next() (Record, bool) {
	if !w.started {
		w.started = true
		if err := w.begin(); err != nil {
			w.err = err
			w.done = true
		}
	}

	errFactory := errors.New()

	for !w.done && w.err == nil && w.remaining > 0 {
		w.remaining--

		resp, err := w.retrieve()
		if err != nil {
			w.err = errFactory.Wrap(errors.ErrCommandSend, err)
			break
		}

		record, err := DecodeRecord(resp)
		switch {
		case errors.IsCode(err, errors.ErrLengthMismatch) || errors.IsCode(err, errors.ErrRecordTruncated):
			// The response framing is no longer trustworthy; stop the walk
			// rather than chase a bogus next address.
			w.log.Debug().Err(err).Uint16("address", uint16(w.address)).Msg("Terminating walk on malformed record")
			w.done = true
		case errors.IsCode(err, errors.ErrUnsupportedRecordType):
			w.log.Debug().
				Uint16("record_id", record.ID).
				Uint8("record_type", uint8(record.Type)).
				Msg("Skipping record of unsupported type")
			w.advance(record.NextAddress)
		case err != nil:
			w.err = err
			w.done = true
		default:
			w.advance(record.NextAddress)
			return record, true
		}
	}

	return Record{}, false
}

// advance moves the walk to the given address, or ends the walk when the
// record points back at the address just read (repository end).
func (w *Walker) advance(next Address) {
	if next == w.address {
		w.done = true
		return
	}
	w.address = next
}

// Err returns the first failure encountered during the walk. Decode
// rejections are not failures; they end or continue the walk per policy.
func (w *Walker) Err() error {
	return w.err
}
