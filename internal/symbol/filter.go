// Package symbol resolves sampled instruction pointers to kernel symbols
// and classifies symbols that should not appear in the histogram.
package symbol

import "strings"

// Class is the filter verdict for a resolved symbol name.
type Class int

const (
	// Keep admits the symbol normally.
	Keep Class = iota
	// Ignore keeps the symbol in the table but drops its samples before
	// aggregation.
	Ignore
	// Reject keeps the symbol out of the table entirely (section
	// boundaries and module markers, not real code).
	Reject
)

// skipSymbols are idle and housekeeping routines whose samples only say
// the CPU had nothing to do.
var skipSymbols = []string{
	"default_idle",
	"native_safe_halt",
	"cpu_idle",
	"enter_idle",
	"exit_idle",
	"mwait_idle",
	"mwait_idle_with_hints",
	"poll_idle",
	"ppc64_runlatch_off",
	"pseries_dedicated_idle_sleep",
}

// Classify applies the fixed denylist rules to a symbol name. A leading '.'
// is stripped first: ppc64 uses function descriptors and prefixes every
// text symbol with one.
func Classify(name string) Class {
	name = strings.TrimPrefix(name, ".")

	if name == "_text" || name == "_etext" || name == "_sinittext" ||
		strings.HasPrefix(name, "init_module") ||
		strings.HasPrefix(name, "cleanup_module") ||
		strings.Contains(name, "_text_start") ||
		strings.Contains(name, "_text_end") {
		return Reject
	}

	for _, skip := range skipSymbols {
		if name == skip {
			return Ignore
		}
	}

	return Keep
}
