package display

import (
	"fmt"

	"github.com/perftop-io/perftop/internal/hist"
)

// RenderTable formats one histogram snapshot as at most maxRows data rows
// plus a summary and a column header, every line clipped to width columns.
// The snapshot is already ranked; rendering never touches the live table.
func RenderTable(snap hist.Snapshot, maxRows, width int) []string {
	if maxRows < 0 {
		maxRows = 0
	}

	lines := make([]string, 0, maxRows+2)
	lines = append(lines, clip(fmt.Sprintf(
		"Samples: %d of event '%s', Total period: %d, %d locations",
		snap.Samples, snap.Name, snap.TotalPeriod, snap.NumEntries), width))
	lines = append(lines, clip(fmt.Sprintf(
		"%9s  %-16s %-20s %s", "Overhead", "Command", "Shared Object", "Symbol"), width))

	n := len(snap.Entries)
	if n > maxRows {
		n = maxRows
	}
	for _, e := range snap.Entries[:n] {
		lines = append(lines, clip(renderRow(e, snap.TotalPeriod), width))
	}
	return lines
}

func renderRow(e hist.Entry, total uint64) string {
	var pct float64
	if total > 0 {
		pct = float64(e.Weight) / float64(total) * 100.0
	}
	module := e.Loc.Module
	if module == "" {
		module = "[unknown]"
	}
	return fmt.Sprintf("%8.2f%%  %-16s %-20s %s", pct, e.Loc.Comm, module, e.Loc.SymbolOrAddr())
}

func clip(s string, width int) string {
	if width > 0 && len(s) > width {
		return s[:width]
	}
	return s
}
