package sample

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformedRecord reports a truncated or otherwise undecodable sample
// record. It is recoverable: the caller drops the record and keeps going.
var ErrMalformedRecord = errors.New("malformed sample record")

// Parse decodes the payload of a sample record according to the negotiated
// field mask. Fields are decoded in negotiation order: instruction pointer,
// pid/tid, period, identifier.
func Parse(data []byte, mask uint64) (Sample, error) {
	var (
		s   Sample
		off int
	)

	u64 := func(field string) (uint64, error) {
		if off+8 > len(data) {
			return 0, fmt.Errorf("%w: %s field truncated at offset %d (record is %d bytes)",
				ErrMalformedRecord, field, off, len(data))
		}
		v := binary.LittleEndian.Uint64(data[off:])
		off += 8
		return v, nil
	}

	if mask&FieldIP != 0 {
		v, err := u64("ip")
		if err != nil {
			return Sample{}, err
		}
		s.IP = v
	}

	if mask&FieldTID != 0 {
		v, err := u64("tid")
		if err != nil {
			return Sample{}, err
		}
		// Packed as {pid u32, tid u32}.
		s.PID = uint32(v)
		s.TID = uint32(v >> 32)
	}

	if mask&FieldPeriod != 0 {
		v, err := u64("period")
		if err != nil {
			return Sample{}, err
		}
		s.Period = v
	}

	if mask&FieldID != 0 {
		v, err := u64("id")
		if err != nil {
			return Sample{}, err
		}
		s.ID = v
	}

	return s, nil
}
