// Package ring consumes the shared-memory ring buffers through which the
// kernel delivers event records.
//
// The kernel is the producer and may overwrite unread bytes under overflow;
// that loss is accepted and not detected. The consumer side never blocks and
// never retains a view into the shared region across calls.
package ring

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"syscall"
)

const headerSize = 8

// Record is one event record copied out of a ring buffer. Data holds the
// payload after the 8-byte header; it is owned by the caller.
type Record struct {
	Type uint32
	Misc uint16
	Data []byte
}

// MappingError reports a failed or invalid ring buffer mapping. Mapping
// failures are fatal for the whole command.
type MappingError struct {
	Pages int
	Errno syscall.Errno
	Cause string
}

func (e *MappingError) Error() string {
	if e.Errno != 0 {
		return fmt.Sprintf("failed to map %d ring buffer pages: %s (errno %d)", e.Pages, e.Errno.Error(), int(e.Errno))
	}
	return fmt.Sprintf("failed to map %d ring buffer pages: %s", e.Pages, e.Cause)
}

// reader advances a consumer cursor over a shared circular data region.
// head is advanced by the producer, tail by us; both grow monotonically and
// wrap modulo the region size. Single consumer, so a plain store of the new
// tail is enough to publish consumption.
type reader struct {
	head *uint64
	tail *uint64
	data []byte
}

// next copies out the record under the consumer cursor, if any.
func (r *reader) next() (Record, bool) {
	head := atomic.LoadUint64(r.head)
	tail := atomic.LoadUint64(r.tail)
	if head == tail {
		return Record{}, false
	}

	size := uint64(len(r.data))
	start := tail % size

	var hdr [headerSize]byte
	r.copyWrapped(hdr[:], start)

	recType := binary.LittleEndian.Uint32(hdr[0:4])
	misc := binary.LittleEndian.Uint16(hdr[4:6])
	recSize := uint64(binary.LittleEndian.Uint16(hdr[6:8]))

	if recSize < headerSize || recSize > size {
		// The producer lapped us mid-read and the header is garbage.
		// Resynchronize by discarding everything currently unread.
		atomic.StoreUint64(r.tail, head)
		return Record{}, false
	}

	data := make([]byte, recSize-headerSize)
	r.copyWrapped(data, (start+headerSize)%size)

	atomic.StoreUint64(r.tail, tail+recSize)

	return Record{Type: recType, Misc: misc, Data: data}, true
}

// copyWrapped copies len(dst) bytes out of the circular region starting at
// start, handling wraparound.
func (r *reader) copyWrapped(dst []byte, start uint64) {
	n := copy(dst, r.data[start:])
	if n < len(dst) {
		copy(dst[n:], r.data)
	}
}
