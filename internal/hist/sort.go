package hist

import (
	"fmt"
	"strings"
)

// SortKey selects which location components participate in ranking and
// collapse.
type SortKey int

const (
	SortPID SortKey = iota
	SortComm
	SortDSO
	SortSymbol
)

// DefaultSortKeys ranks by command, module, then symbol.
func DefaultSortKeys() []SortKey {
	return []SortKey{SortComm, SortDSO, SortSymbol}
}

// ParseSortKeys parses the -s comma-separated key list.
func ParseSortKeys(spec string) ([]SortKey, error) {
	if spec == "" {
		return DefaultSortKeys(), nil
	}

	var keys []SortKey
	for _, name := range strings.Split(spec, ",") {
		switch strings.TrimSpace(name) {
		case "pid":
			keys = append(keys, SortPID)
		case "comm":
			keys = append(keys, SortComm)
		case "dso":
			keys = append(keys, SortDSO)
		case "symbol":
			keys = append(keys, SortSymbol)
		case "":
			continue
		default:
			return nil, fmt.Errorf("unknown sort key %q (available: pid, comm, dso, symbol)", name)
		}
	}
	if len(keys) == 0 {
		return DefaultSortKeys(), nil
	}
	return keys, nil
}

// collapseLocation keeps only the components named by the sort keys, so
// entries that agree on them merge. The raw address survives only when
// ranking by symbol, as the fallback identity of unresolved locations.
func collapseLocation(loc Location, keys []SortKey) Location {
	var out Location
	for _, key := range keys {
		switch key {
		case SortPID:
			out.PID = loc.PID
		case SortComm:
			out.Comm = loc.Comm
		case SortDSO:
			out.Module = loc.Module
		case SortSymbol:
			out.Symbol = loc.Symbol
			if loc.Symbol == "" {
				out.IP = loc.IP
			}
		}
	}
	return out
}

// lessLocation is the deterministic tie-break order for equal weights.
func lessLocation(a, b Location) bool {
	if a.Comm != b.Comm {
		return a.Comm < b.Comm
	}
	if a.Module != b.Module {
		return a.Module < b.Module
	}
	if a.Symbol != b.Symbol {
		return a.Symbol < b.Symbol
	}
	if a.PID != b.PID {
		return a.PID < b.PID
	}
	return a.IP < b.IP
}
