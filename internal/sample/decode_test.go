package sample

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u64s(values ...uint64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], v)
	}
	return buf
}

func packTID(pid, tid uint32) uint64 {
	return uint64(pid) | uint64(tid)<<32
}

func TestParse_AllFields(t *testing.T) {
	mask := FieldIP | FieldTID | FieldPeriod | FieldID
	data := u64s(0xffffffff81000042, packTID(1234, 5678), 4000, 7)

	s, err := Parse(data, mask)
	require.NoError(t, err)

	assert.Equal(t, uint64(0xffffffff81000042), s.IP)
	assert.Equal(t, uint32(1234), s.PID)
	assert.Equal(t, uint32(5678), s.TID)
	assert.Equal(t, uint64(4000), s.Period)
	assert.Equal(t, uint64(7), s.ID)
}

func TestParse_FieldPresenceShiftsOffsets(t *testing.T) {
	// Every enabled subset decodes exactly the enabled fields at offsets
	// implied by the lower enabled fields only.
	tests := []struct {
		name string
		mask uint64
		data []byte
		want Sample
	}{
		{
			name: "ip only",
			mask: FieldIP,
			data: u64s(0x42),
			want: Sample{IP: 0x42},
		},
		{
			name: "tid only",
			mask: FieldTID,
			data: u64s(packTID(10, 11)),
			want: Sample{PID: 10, TID: 11},
		},
		{
			name: "period only",
			mask: FieldPeriod,
			data: u64s(999),
			want: Sample{Period: 999},
		},
		{
			name: "id only",
			mask: FieldID,
			data: u64s(3),
			want: Sample{ID: 3},
		},
		{
			name: "ip and period, no tid",
			mask: FieldIP | FieldPeriod,
			data: u64s(0x42, 999),
			want: Sample{IP: 0x42, Period: 999},
		},
		{
			name: "tid and id, no ip or period",
			mask: FieldTID | FieldID,
			data: u64s(packTID(10, 11), 3),
			want: Sample{PID: 10, TID: 11, ID: 3},
		},
		{
			name: "period and id",
			mask: FieldPeriod | FieldID,
			data: u64s(999, 3),
			want: Sample{Period: 999, ID: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(tt.data, tt.mask)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestParse_TrailingBytesIgnored(t *testing.T) {
	// Records may carry fields we did not negotiate for; anything past
	// the fields we know about is ignored.
	data := append(u64s(0x42), 0xde, 0xad)

	s, err := Parse(data, FieldIP)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x42), s.IP)
}

func TestParse_TruncatedField(t *testing.T) {
	tests := []struct {
		name string
		mask uint64
		data []byte
	}{
		{"empty record with ip enabled", FieldIP, nil},
		{"partial ip", FieldIP, u64s(0x42)[:7]},
		{"missing tid after ip", FieldIP | FieldTID, u64s(0x42)},
		{"missing period after ip and tid", FieldIP | FieldTID | FieldPeriod, u64s(0x42, packTID(1, 2))},
		{"missing id", FieldIP | FieldTID | FieldPeriod | FieldID, u64s(0x42, packTID(1, 2), 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data, tt.mask)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRecord), "expected ErrMalformedRecord, got %v", err)
		})
	}
}

func TestParse_EmptyMask(t *testing.T) {
	s, err := Parse(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, Sample{}, s)
}
