// Package top orchestrates a profiling run: event negotiation, ring buffer
// draining, sample aggregation, and the concurrent display loop.
package top

import (
	"github.com/rs/zerolog"

	"github.com/perftop-io/perftop/internal/event"
	"github.com/perftop-io/perftop/internal/hist"
	"github.com/perftop-io/perftop/internal/ring"
	"github.com/perftop-io/perftop/internal/sample"
	"github.com/perftop-io/perftop/internal/symbol"
)

// symbolResolver resolves instruction pointers to kernel symbols.
type symbolResolver interface {
	Resolve(addr uint64) (symbol.Symbol, bool)
}

// commSource resolves pids to command names.
type commSource interface {
	Comm(pid uint32) string
}

// sampler turns raw ring buffer records into histogram entries. One sampler
// serves every stream of a run; records carry enough identity to find their
// owning table.
type sampler struct {
	resolver symbolResolver
	comms    commSource
	demux    func(id uint64) *event.Descriptor
	tables   map[*event.Descriptor]*hist.Table
	logger   zerolog.Logger
}

func newSampler(
	resolver symbolResolver,
	comms commSource,
	demux func(id uint64) *event.Descriptor,
	tables map[*event.Descriptor]*hist.Table,
	logger zerolog.Logger,
) *sampler {
	return &sampler{
		resolver: resolver,
		comms:    comms,
		demux:    demux,
		tables:   tables,
		logger:   logger.With().Str("component", "sampler").Logger(),
	}
}

// processRecord aggregates one record delivered on a stream owned by desc.
// Non-sample records are tallied by type. Malformed samples and samples for
// unknown identifiers are dropped; sampling continues.
func (s *sampler) processRecord(desc *event.Descriptor, rec ring.Record) {
	table := s.tables[desc]

	if rec.Type != sample.RecordSample {
		if table != nil {
			table.CountRecord(rec.Type)
		}
		return
	}

	sm, err := sample.Parse(rec.Data, desc.SampleType)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Dropped malformed sample record")
		return
	}

	if desc.SampleType&sample.FieldID != 0 {
		owner := s.demux(sm.ID)
		if owner == nil {
			s.logger.Debug().Uint64("id", sm.ID).Msg("Dropped sample with unknown identifier")
			return
		}
		desc = owner
		table = s.tables[desc]
	}
	if table == nil {
		return
	}

	// Fixed-period counters do not carry the period per sample; every
	// sample is worth the configured period.
	period := sm.Period
	if desc.SampleType&sample.FieldPeriod == 0 {
		period = desc.SamplePeriod
	}

	loc := hist.Location{
		PID:  sm.PID,
		Comm: s.comms.Comm(sm.PID),
		IP:   sm.IP,
	}
	if s.resolver != nil {
		if sym, ok := s.resolver.Resolve(sm.IP); ok {
			if sym.Ignore {
				return
			}
			loc.Symbol = sym.Name
			loc.Module = sym.Module
		}
	}

	table.Insert(loc, period)
}
