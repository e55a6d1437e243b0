// Package event negotiates counter descriptors with the kernel perf
// subsystem: selector parsing, sampling-rate resolution, descriptor open
// with capability fallback, and ring buffer mapping for the resulting
// event group.
package event

import (
	"fmt"

	"github.com/perftop-io/perftop/internal/sample"
)

// Descriptor type ids, matching the kernel perf ABI.
const (
	TypeHardware uint32 = 0
	TypeSoftware uint32 = 1
	TypeRaw      uint32 = 4
)

// Hardware counter configs.
const (
	HWCPUCycles uint64 = iota
	HWInstructions
	HWCacheReferences
	HWCacheMisses
	HWBranchInstructions
	HWBranchMisses
	HWBusCycles
)

// Software counter configs.
const (
	SWCPUClock uint64 = iota
	SWTaskClock
	SWPageFaults
	SWContextSwitches
	SWCPUMigrations
	SWPageFaultsMin
	SWPageFaultsMaj
)

// Descriptor names a counter, its sampling mode, and the fields its samples
// will carry. Exactly one of fixed-period or frequency mode is active once
// sampling rates are resolved.
type Descriptor struct {
	Type   uint32
	Config uint64
	Name   string

	// SamplePeriod is the event count between samples (fixed-period mode).
	SamplePeriod uint64
	// SampleFreq is the target sample rate in Hz (frequency mode).
	SampleFreq uint64
	// Freq selects frequency mode over fixed-period mode.
	Freq bool

	// Inherit extends the counter to child tasks.
	Inherit bool

	// SampleType is the negotiated sample field bitmask.
	SampleType uint64
	// ReadFormat is the negotiated counter read layout.
	ReadFormat uint64
}

// DefaultDescriptor returns the descriptor used when no event selector is
// given: hardware cpu-cycles.
func DefaultDescriptor() *Descriptor {
	return &Descriptor{
		Type:   TypeHardware,
		Config: HWCPUCycles,
		Name:   "cycles",
	}
}

// isDefaultCycles reports whether the descriptor still requests the default
// hardware cycle counter, which is the only event eligible for the software
// cpu-clock fallback.
func (d *Descriptor) isDefaultCycles() bool {
	return d.Type == TypeHardware && d.Config == HWCPUCycles
}

// fallback returns the software cpu-clock substitute for this descriptor,
// preserving its sampling settings.
func (d *Descriptor) fallback() *Descriptor {
	sub := *d
	sub.Type = TypeSoftware
	sub.Config = SWCPUClock
	sub.Name = "cpu-clock"
	return &sub
}

func (d *Descriptor) String() string {
	if d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("raw %#x:%#x", d.Type, d.Config)
}

// ResolveSampling applies the global sampling rate to every descriptor that
// does not carry its own fixed period. An explicit count forces period mode
// and disables the global frequency. Both resolving to zero is an invalid
// configuration, rejected before any open attempt.
func ResolveSampling(descs []*Descriptor, freq, count uint64) error {
	if count > 0 {
		freq = 0
	}
	if freq == 0 && count == 0 {
		return ErrInvalidConfig
	}

	for _, d := range descs {
		if d.SamplePeriod != 0 {
			// The descriptor's own period wins.
			d.Freq = false
			d.SampleFreq = 0
			continue
		}
		if freq > 0 {
			d.Freq = true
			d.SampleFreq = freq
		} else {
			d.SamplePeriod = count
		}
	}

	return nil
}

// DeriveSampleTypes fills in the sample field bitmask and read format for
// every descriptor. Instruction pointer and tid are always carried; the
// period travels with each sample in frequency mode; an identifier is added
// when multiple descriptors exist so records can be demultiplexed back to
// their owner.
func DeriveSampleTypes(descs []*Descriptor) {
	for _, d := range descs {
		d.SampleType = sample.FieldIP | sample.FieldTID
		if d.Freq {
			d.SampleType |= sample.FieldPeriod
		}
		if len(descs) > 1 {
			d.SampleType |= sample.FieldID
			d.ReadFormat |= sample.ReadFormatID
		}
	}
}
