package symbol

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/perftop-io/perftop/internal/sys/proc"
)

// Symbol is a resolved execution location.
type Symbol struct {
	Name   string
	Module string
	// Ignore marks idle/housekeeping symbols whose samples are dropped
	// before aggregation.
	Ignore bool
}

type entry struct {
	addr   uint64
	name   string
	module string
	ignore bool
}

// Resolver maps kernel addresses to symbols. The symbol list is loaded once
// and binary-searched; resolutions are cached.
type Resolver struct {
	symbols []entry
	cache   map[uint64]Symbol
	mu      sync.RWMutex
	logger  zerolog.Logger
}

// NewResolver builds a resolver from /proc/kallsyms. Call once at startup
// and share across the sampling loop's lifetime.
func NewResolver(logger zerolog.Logger) (*Resolver, error) {
	logger = logger.With().Str("component", "symbol_resolver").Logger()

	symbols, zeroAddresses, err := proc.ReadKallsyms()
	if err != nil {
		return nil, fmt.Errorf("failed to read kallsyms: %w", err)
	}

	if len(symbols) == 0 && zeroAddresses > 0 {
		return nil, fmt.Errorf("all kallsyms addresses are 0 (insufficient permissions - need root or CAP_SYSLOG)")
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no kernel symbols found in /proc/kallsyms")
	}

	r := newResolver(symbols, logger)

	logger.Info().
		Int("symbol_count", len(r.symbols)).
		Int("zero_addresses", zeroAddresses).
		Msg("Symbol resolver initialized")

	return r, nil
}

// newResolver builds a resolver from an explicit symbol list, applying the
// filter: boundary symbols are rejected outright, idle symbols are admitted
// but marked ignorable.
func newResolver(symbols []proc.KernelSymbol, logger zerolog.Logger) *Resolver {
	entries := make([]entry, 0, len(symbols))
	for _, sym := range symbols {
		switch Classify(sym.Name) {
		case Reject:
			continue
		case Ignore:
			entries = append(entries, entry{addr: sym.Address, name: sym.Name, module: sym.Module, ignore: true})
		default:
			entries = append(entries, entry{addr: sym.Address, name: sym.Name, module: sym.Module})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].addr < entries[j].addr
	})

	return &Resolver{
		symbols: entries,
		cache:   make(map[uint64]Symbol),
		logger:  logger,
	}
}

// Resolve maps an address to the symbol containing it. The second return
// value is false when the address is outside every known symbol.
func (r *Resolver) Resolve(addr uint64) (Symbol, bool) {
	r.mu.RLock()
	if sym, ok := r.cache[addr]; ok {
		r.mu.RUnlock()
		return sym, true
	}
	r.mu.RUnlock()

	// Largest symbol address <= addr.
	idx := sort.Search(len(r.symbols), func(i int) bool {
		return r.symbols[i].addr > addr
	})
	if idx == 0 {
		return Symbol{}, false
	}

	e := r.symbols[idx-1]
	sym := Symbol{Name: e.name, Module: e.module, Ignore: e.ignore}

	r.mu.Lock()
	r.cache[addr] = sym
	r.mu.Unlock()

	return sym, true
}

// SymbolCount returns the number of symbols admitted to the table.
func (r *Resolver) SymbolCount() int {
	return len(r.symbols)
}
