package ring

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRing simulates the kernel side of a ring buffer for reader tests.
type fakeRing struct {
	head uint64
	tail uint64
	data []byte
	rd   reader
}

func newFakeRing(t *testing.T, size int) *fakeRing {
	t.Helper()
	require.Zero(t, size&(size-1), "ring size must be a power of two")

	f := &fakeRing{data: make([]byte, size)}
	f.rd = reader{head: &f.head, tail: &f.tail, data: f.data}
	return f
}

// produce appends one record at the producer cursor, wrapping as the kernel
// does.
func (f *fakeRing) produce(recType uint32, misc uint16, payload []byte) {
	rec := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint32(rec[0:4], recType)
	binary.LittleEndian.PutUint16(rec[4:6], misc)
	binary.LittleEndian.PutUint16(rec[6:8], uint16(len(rec)))
	copy(rec[headerSize:], payload)

	start := f.head % uint64(len(f.data))
	n := copy(f.data[start:], rec)
	copy(f.data, rec[n:])
	f.head += uint64(len(rec))
}

func TestNext_EmptyRing(t *testing.T) {
	f := newFakeRing(t, 64)

	_, ok := f.rd.next()
	assert.False(t, ok)
}

func TestNext_SingleRecord(t *testing.T) {
	f := newFakeRing(t, 64)
	f.produce(9, 0x2, []byte{1, 2, 3, 4, 5, 6, 7, 8})

	rec, ok := f.rd.next()
	require.True(t, ok)
	assert.Equal(t, uint32(9), rec.Type)
	assert.Equal(t, uint16(0x2), rec.Misc)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, rec.Data)

	// Cursor advanced past exactly this record.
	assert.Equal(t, f.head, f.tail)
	_, ok = f.rd.next()
	assert.False(t, ok)
}

func TestNext_MultipleRecordsInOrder(t *testing.T) {
	f := newFakeRing(t, 128)
	f.produce(9, 0, []byte{0xaa, 0, 0, 0, 0, 0, 0, 0})
	f.produce(2, 0, nil)
	f.produce(9, 0, []byte{0xbb, 0, 0, 0, 0, 0, 0, 0})

	rec1, ok := f.rd.next()
	require.True(t, ok)
	assert.Equal(t, byte(0xaa), rec1.Data[0])

	rec2, ok := f.rd.next()
	require.True(t, ok)
	assert.Equal(t, uint32(2), rec2.Type)
	assert.Empty(t, rec2.Data)

	rec3, ok := f.rd.next()
	require.True(t, ok)
	assert.Equal(t, byte(0xbb), rec3.Data[0])

	_, ok = f.rd.next()
	assert.False(t, ok)
}

func TestNext_RecordWrapsAroundRing(t *testing.T) {
	f := newFakeRing(t, 32)

	// Push the cursors near the end of the region so the next record wraps.
	f.head = 24
	f.tail = 24
	f.produce(9, 0, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16})

	rec, ok := f.rd.next()
	require.True(t, ok)
	assert.Equal(t, uint32(9), rec.Type)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}, rec.Data)
	assert.Equal(t, f.head, f.tail)
}

func TestNext_HeaderWrapsAroundRing(t *testing.T) {
	f := newFakeRing(t, 32)

	// Start 4 bytes before the end: the 8-byte header itself wraps.
	f.head = 28
	f.tail = 28
	f.produce(9, 0x1, []byte{0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 0})

	rec, ok := f.rd.next()
	require.True(t, ok)
	assert.Equal(t, uint32(9), rec.Type)
	assert.Equal(t, uint16(0x1), rec.Misc)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 0}, rec.Data)
}

func TestNext_GarbageHeaderResynchronizes(t *testing.T) {
	f := newFakeRing(t, 64)

	// Simulate the producer having lapped the consumer: unread bytes where
	// the header's size field is zero.
	f.head = 16

	_, ok := f.rd.next()
	assert.False(t, ok)
	// The cursor skipped the garbage so the next call starts clean.
	assert.Equal(t, f.head, f.tail)
}

func TestNext_ReturnedDataIsACopy(t *testing.T) {
	f := newFakeRing(t, 64)
	f.produce(9, 0, []byte{1, 2, 3, 4, 5, 6, 7, 8})

	rec, ok := f.rd.next()
	require.True(t, ok)

	// The producer overwriting the region must not alias into the record.
	for i := range f.data {
		f.data[i] = 0xff
	}
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, rec.Data)
}

func TestMappingError_Message(t *testing.T) {
	err := &MappingError{Pages: 12, Cause: "page count must be a power of two"}
	assert.Contains(t, err.Error(), "12")
	assert.Contains(t, err.Error(), "power of two")
}
