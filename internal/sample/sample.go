// Package sample decodes raw ring buffer records into structured samples.
//
// A sample record carries only the fields negotiated into its descriptor's
// sample field mask. Fields appear in negotiation order; a field whose bit
// is clear is absent from the wire layout and shifts every later field.
package sample

// Sample field bits, matching the kernel perf ABI values.
const (
	FieldIP     uint64 = 1 << 0
	FieldTID    uint64 = 1 << 1
	FieldID     uint64 = 1 << 6
	FieldPeriod uint64 = 1 << 8
)

// Read format bits for counter reads.
const (
	ReadFormatID uint64 = 1 << 2
)

// Record types delivered through the ring buffer.
const (
	RecordMmap       uint32 = 1
	RecordLost       uint32 = 2
	RecordComm       uint32 = 3
	RecordExit       uint32 = 4
	RecordThrottle   uint32 = 5
	RecordUnthrottle uint32 = 6
	RecordFork       uint32 = 7
	RecordRead       uint32 = 8
	RecordSample     uint32 = 9

	// RecordTypeMax bounds the per-type counter array kept by each
	// histogram table.
	RecordTypeMax = 16
)

// Sample is one decoded observation. Fields whose bit was not negotiated
// are left zero; callers interpret them against the descriptor's mask.
type Sample struct {
	IP     uint64
	PID    uint32
	TID    uint32
	Period uint64
	ID     uint64
}
