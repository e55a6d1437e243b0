//go:build linux

package top

import (
	"context"
	"fmt"

	"github.com/perftop-io/perftop/internal/display"
	"github.com/perftop-io/perftop/internal/event"
	"github.com/perftop-io/perftop/internal/hist"
	"github.com/perftop-io/perftop/internal/ring"
	"github.com/perftop-io/perftop/internal/session"
	"github.com/perftop-io/perftop/internal/symbol"
	"github.com/perftop-io/perftop/internal/sys/sysfs"
)

// Run profiles until the user quits or the context is cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger

	descs := cfg.Descriptors
	if len(descs) == 0 {
		descs = []*event.Descriptor{event.DefaultDescriptor()}
	}
	for _, d := range descs {
		d.Inherit = cfg.Inherit
	}

	if err := event.ResolveSampling(descs, cfg.Freq, cfg.Count); err != nil {
		return err
	}
	event.DeriveSampleTypes(descs)

	cpus, err := sysfs.OnlineCPUs()
	if err != nil {
		return fmt.Errorf("failed to enumerate online cpus: %w", err)
	}

	group, err := event.Open(descs, cpus, cfg.Grouped, logger)
	if err != nil {
		return err
	}
	defer group.Close()

	if err := group.MapRings(cfg.MmapPages); err != nil {
		return err
	}

	logger.Info().
		Int("cpu_count", len(cpus)).
		Int("event_count", len(group.Descriptors())).
		Int("mmap_pages", cfg.MmapPages).
		Msg("Profiling session started")

	geom := display.NewGeometry()
	geom.WatchResize(ctx)

	inventory := session.Synthesize(logger)

	// Without kernel symbols the profile degrades to raw addresses.
	resolver, err := symbol.NewResolver(logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Kernel symbols unavailable, samples will show raw addresses")
		resolver = nil
	}

	tables := make([]*hist.Table, 0, len(group.Descriptors()))
	byDesc := make(map[*event.Descriptor]*hist.Table, len(group.Descriptors()))
	for _, d := range group.Descriptors() {
		t := hist.NewTable(d.String(), cfg.SortKeys)
		tables = append(tables, t)
		byDesc[d] = t
	}

	// A nil interface keeps the no-symbols degradation explicit; a typed
	// nil pointer would not.
	var res symbolResolver
	if resolver != nil {
		res = resolver
	}
	smp := newSampler(res, inventory, group.DescriptorByID, byDesc, logger)

	// Give the counters a moment to produce before the first paint.
	if _, err := ring.Wait(group.FDs(), pollInterval); err != nil {
		return &WaitError{Err: err}
	}
	drainAll(group, smp)

	displayCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	displayDone := make(chan error, 1)
	go func() {
		displayDone <- display.Loop(displayCtx, tables, geom, logger)
	}()

	fds := group.FDs()
	for {
		select {
		case err := <-displayDone:
			return err
		case <-ctx.Done():
			cancel()
			<-displayDone
			return nil
		default:
		}

		before := totalPeriod(tables)
		drainAll(group, smp)

		if totalPeriod(tables) == before {
			if _, err := ring.Wait(fds, pollInterval); err != nil {
				cancel()
				<-displayDone
				return &WaitError{Err: err}
			}
		}
	}
}

// drainAll consumes every unread record from every stream.
func drainAll(group *event.Group, smp *sampler) {
	for _, s := range group.Streams() {
		for {
			rec, ok := s.Ring.Next()
			if !ok {
				break
			}
			smp.processRecord(s.Desc, rec)
		}
	}
}

func totalPeriod(tables []*hist.Table) uint64 {
	var total uint64
	for _, t := range tables {
		total += t.TotalPeriod()
	}
	return total
}
