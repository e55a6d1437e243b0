//go:build linux

package event

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/perftop-io/perftop/internal/ring"
	"github.com/perftop-io/perftop/internal/sample"
)

// Stream is one open (descriptor, cpu) pair: the kernel handle and, once
// mapped, its ring buffer.
type Stream struct {
	Desc *Descriptor
	CPU  int
	FD   int
	Ring *ring.Buffer
}

// Group is an event group: the negotiated descriptors, their open streams
// across the target CPU enumeration, and the id demux table.
type Group struct {
	descs   []*Descriptor
	streams []*Stream
	byID    map[uint64]*Descriptor
	logger  zerolog.Logger
}

// Open negotiates every descriptor against all target CPUs (system-wide,
// one stream per cpu). With grouped true, each cpu's streams form one
// counter group led by the first descriptor's stream. Any negotiation
// failure closes everything already opened.
func Open(descs []*Descriptor, cpus []int, grouped bool, logger zerolog.Logger) (*Group, error) {
	if len(descs) == 0 {
		return nil, fmt.Errorf("no event descriptors to open")
	}

	targets := make([]target, len(cpus))
	for i, cpu := range cpus {
		targets[i] = target{pid: -1, cpu: cpu}
	}

	g := &Group{
		logger: logger.With().Str("component", "event_group").Logger(),
	}

	// Per-target group leader fds, filled in after the first descriptor
	// opens when grouping is requested.
	leaderFDs := make([]int, len(targets))
	groupFDs := make([]int, len(targets))
	for i := range groupFDs {
		groupFDs[i] = -1
	}

	for di, d := range descs {
		res, err := negotiateDescriptor(d, targets, groupFDs, sysOpen, unix.Close, g.logger)
		if err != nil {
			g.closeStreams()
			return nil, err
		}

		for i, fd := range res.fds {
			g.streams = append(g.streams, &Stream{Desc: res.desc, CPU: targets[i].cpu, FD: fd})
		}
		g.descs = append(g.descs, res.desc)

		if grouped && di == 0 {
			copy(leaderFDs, res.fds)
			copy(groupFDs, leaderFDs)
		}
	}

	if err := g.readIDs(); err != nil {
		g.closeStreams()
		return nil, err
	}

	return g, nil
}

// sysOpen performs one perf_event_open attempt.
func sysOpen(d *Descriptor, pid, cpu, groupFD int) (int, error) {
	return unix.PerfEventOpen(buildAttr(d), pid, cpu, groupFD, unix.PERF_FLAG_FD_CLOEXEC)
}

// buildAttr translates a negotiated descriptor into the kernel attr
// structure.
func buildAttr(d *Descriptor) *unix.PerfEventAttr {
	attr := &unix.PerfEventAttr{
		Type:        d.Type,
		Config:      d.Config,
		Size:        uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
		Sample_type: d.SampleType,
		Read_format: d.ReadFormat,
		Bits:        unix.PerfBitMmap,
	}
	if d.Freq {
		attr.Bits |= unix.PerfBitFreq
		attr.Sample = d.SampleFreq
	} else {
		attr.Sample = d.SamplePeriod
	}
	if d.Inherit {
		attr.Bits |= unix.PerfBitInherit
	}
	return attr
}

// readIDs builds the sample-id demux table by reading each counter once.
// With FORMAT_ID negotiated the read returns {value, id}. Single-descriptor
// groups skip this; their samples carry no identifier.
func (g *Group) readIDs() error {
	if len(g.descs) < 2 {
		return nil
	}

	g.byID = make(map[uint64]*Descriptor)
	buf := make([]byte, 16)
	for _, s := range g.streams {
		if s.Desc.ReadFormat&sample.ReadFormatID == 0 {
			continue
		}
		n, err := unix.Read(s.FD, buf)
		if err != nil || n < 16 {
			return fmt.Errorf("failed to read sample id for %s on cpu %d: %w", s.Desc, s.CPU, err)
		}
		id := binary.LittleEndian.Uint64(buf[8:])
		g.byID[id] = s.Desc
	}
	return nil
}

// MapRings maps a ring buffer of pages data pages over every open stream.
// Any failure is fatal and tears the group down.
func (g *Group) MapRings(pages int) error {
	for _, s := range g.streams {
		buf, err := ring.Map(s.FD, pages)
		if err != nil {
			g.Close()
			return err
		}
		s.Ring = buf
	}
	return nil
}

// Descriptors returns the negotiated descriptors, post-fallback.
func (g *Group) Descriptors() []*Descriptor {
	return g.descs
}

// Streams returns every open (descriptor, cpu) stream.
func (g *Group) Streams() []*Stream {
	return g.streams
}

// FDs returns every open event fd, for idle-backoff polling.
func (g *Group) FDs() []int {
	fds := make([]int, len(g.streams))
	for i, s := range g.streams {
		fds[i] = s.FD
	}
	return fds
}

// DescriptorByID resolves a sample identifier back to its owning
// descriptor. With a single descriptor there is nothing to demux and it is
// returned directly.
func (g *Group) DescriptorByID(id uint64) *Descriptor {
	if len(g.descs) == 1 {
		return g.descs[0]
	}
	return g.byID[id]
}

// Close unmaps every ring buffer and closes every fd. Safe to call on a
// partially constructed group.
func (g *Group) Close() {
	g.closeStreams()
}

func (g *Group) closeStreams() {
	for _, s := range g.streams {
		if s.Ring != nil {
			if err := s.Ring.Close(); err != nil {
				g.logger.Warn().Err(err).Int("cpu", s.CPU).Msg("Failed to unmap ring buffer")
			}
			s.Ring = nil
		}
		if err := unix.Close(s.FD); err != nil {
			g.logger.Warn().Err(err).Int("cpu", s.CPU).Msg("Failed to close event fd")
		}
	}
	g.streams = nil
}
