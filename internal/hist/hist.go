// Package hist maintains the ranked weighted histograms that samples are
// aggregated into, one table per event group member.
//
// Tables are written by the sampling loop and snapshotted by the display
// loop. The sharing discipline is coarse: a snapshot may lag the latest
// insert by a render cycle, but no entry is ever observed half-updated.
package hist

import (
	"fmt"
	"sort"
	"sync"

	"github.com/perftop-io/perftop/internal/sample"
)

// Location is the execution location keying a histogram entry: resolved
// symbol, owning module and command, or the raw address and command when
// resolution missed.
type Location struct {
	PID    uint32
	Comm   string
	Module string
	Symbol string
	IP     uint64
}

// SymbolOrAddr renders the symbol name, falling back to the raw address.
func (l Location) SymbolOrAddr() string {
	if l.Symbol != "" {
		return l.Symbol
	}
	return fmt.Sprintf("0x%016x", l.IP)
}

// Entry is one histogram row: a location and its accumulated period.
type Entry struct {
	Loc    Location
	Weight uint64
}

// Table is the per-event histogram: entries keyed by full location, plus
// aggregate counters. The ranked order is rebuilt by CollapseResort and
// read by Snapshot.
type Table struct {
	Name string

	mu           sync.Mutex
	entries      map[Location]*Entry
	order        []Entry
	sortKeys     []SortKey
	totalPeriod  uint64
	recordCounts [sample.RecordTypeMax]uint64
}

// NewTable creates an empty table for the named event, ranked under the
// given sort keys.
func NewTable(name string, sortKeys []SortKey) *Table {
	return &Table{
		Name:     name,
		entries:  make(map[Location]*Entry),
		sortKeys: sortKeys,
	}
}

// Insert accumulates one sample period into the entry for loc, creating it
// on first sight. The table total grows by the same amount; entries are
// never deleted.
func (t *Table) Insert(loc Location, period uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[loc]
	if !ok {
		e = &Entry{Loc: loc}
		t.entries[loc] = e
	}
	e.Weight += period
	t.totalPeriod += period
	t.recordCounts[sample.RecordSample]++
}

// CountRecord tallies a non-sample record type delivered for this table.
func (t *Table) CountRecord(recType uint32) {
	if recType >= sample.RecordTypeMax {
		return
	}
	t.mu.Lock()
	t.recordCounts[recType]++
	t.mu.Unlock()
}

// TotalPeriod returns the sum of all periods ever aggregated into the
// table.
func (t *Table) TotalPeriod() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalPeriod
}

// RecordCount returns how many records of the given type were seen.
func (t *Table) RecordCount(recType uint32) uint64 {
	if recType >= sample.RecordTypeMax {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recordCounts[recType]
}

// CollapseResort merges entries whose locations are equal under the sort
// policy and rebuilds the ranked order: descending weight, ties broken by
// lexical key comparison so repeated resorts of unchanged data are
// identical.
func (t *Table) CollapseResort() {
	t.mu.Lock()
	defer t.mu.Unlock()

	merged := make(map[Location]*Entry, len(t.entries))
	for loc, e := range t.entries {
		key := collapseLocation(loc, t.sortKeys)
		m, ok := merged[key]
		if !ok {
			m = &Entry{Loc: key}
			merged[key] = m
		}
		m.Weight += e.Weight
	}

	order := make([]Entry, 0, len(merged))
	for _, e := range merged {
		order = append(order, *e)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].Weight != order[j].Weight {
			return order[i].Weight > order[j].Weight
		}
		return lessLocation(order[i].Loc, order[j].Loc)
	})

	t.order = order
}

// Snapshot returns the top limit entries in current ranked order, plus the
// aggregate counters, without mutating the table. The returned view is a
// copy and safe to read while inserts continue.
func (t *Table) Snapshot(limit int) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.order)
	if limit >= 0 && limit < n {
		n = limit
	}
	entries := make([]Entry, n)
	copy(entries, t.order[:n])

	return Snapshot{
		Name:        t.Name,
		Entries:     entries,
		NumEntries:  len(t.order),
		TotalPeriod: t.totalPeriod,
		Samples:     t.recordCounts[sample.RecordSample],
	}
}

// Snapshot is an ephemeral read-only view of a table, consumed by one
// render pass.
type Snapshot struct {
	Name        string
	Entries     []Entry
	NumEntries  int
	TotalPeriod uint64
	Samples     uint64
}
