package event

import (
	"fmt"
	"strconv"
	"strings"
)

// namedEvents maps the supported event selector names to descriptor
// type/config pairs. Aliases share an entry; the canonical name is kept on
// the descriptor.
var namedEvents = map[string]Descriptor{
	"cycles":              {Type: TypeHardware, Config: HWCPUCycles, Name: "cycles"},
	"cpu-cycles":          {Type: TypeHardware, Config: HWCPUCycles, Name: "cycles"},
	"instructions":        {Type: TypeHardware, Config: HWInstructions, Name: "instructions"},
	"cache-references":    {Type: TypeHardware, Config: HWCacheReferences, Name: "cache-references"},
	"cache-misses":        {Type: TypeHardware, Config: HWCacheMisses, Name: "cache-misses"},
	"branches":            {Type: TypeHardware, Config: HWBranchInstructions, Name: "branches"},
	"branch-instructions": {Type: TypeHardware, Config: HWBranchInstructions, Name: "branches"},
	"branch-misses":       {Type: TypeHardware, Config: HWBranchMisses, Name: "branch-misses"},
	"bus-cycles":          {Type: TypeHardware, Config: HWBusCycles, Name: "bus-cycles"},
	"cpu-clock":           {Type: TypeSoftware, Config: SWCPUClock, Name: "cpu-clock"},
	"task-clock":          {Type: TypeSoftware, Config: SWTaskClock, Name: "task-clock"},
	"page-faults":         {Type: TypeSoftware, Config: SWPageFaults, Name: "page-faults"},
	"faults":              {Type: TypeSoftware, Config: SWPageFaults, Name: "page-faults"},
	"minor-faults":        {Type: TypeSoftware, Config: SWPageFaultsMin, Name: "minor-faults"},
	"major-faults":        {Type: TypeSoftware, Config: SWPageFaultsMaj, Name: "major-faults"},
	"context-switches":    {Type: TypeSoftware, Config: SWContextSwitches, Name: "context-switches"},
	"cs":                  {Type: TypeSoftware, Config: SWContextSwitches, Name: "context-switches"},
	"cpu-migrations":      {Type: TypeSoftware, Config: SWCPUMigrations, Name: "cpu-migrations"},
	"migrations":          {Type: TypeSoftware, Config: SWCPUMigrations, Name: "cpu-migrations"},
}

// ParseSelector parses one -e event selector. Supported forms:
//
//	cycles                     named event
//	rNNN                       raw hardware event, NNN hex
//	cycles/period=100000/      named event with a fixed per-event period
func ParseSelector(selector string) (*Descriptor, error) {
	base, mods, err := splitModifiers(selector)
	if err != nil {
		return nil, err
	}
	if base == "" {
		return nil, fmt.Errorf("empty event selector")
	}

	var desc Descriptor
	if named, ok := namedEvents[base]; ok {
		desc = named
	} else if strings.HasPrefix(base, "r") {
		config, err := strconv.ParseUint(base[1:], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("unknown event %q (see available named events or use rNNN)", base)
		}
		desc = Descriptor{Type: TypeRaw, Config: config, Name: base}
	} else {
		return nil, fmt.Errorf("unknown event %q", base)
	}

	for key, value := range mods {
		switch key {
		case "period":
			period, err := strconv.ParseUint(value, 10, 64)
			if err != nil || period == 0 {
				return nil, fmt.Errorf("invalid period %q in event %q", value, selector)
			}
			desc.SamplePeriod = period
		default:
			return nil, fmt.Errorf("unknown event modifier %q in %q", key, selector)
		}
	}

	return &desc, nil
}

// ParseSelectors parses the repeatable -e flag values. An empty list yields
// the default descriptor.
func ParseSelectors(selectors []string) ([]*Descriptor, error) {
	if len(selectors) == 0 {
		return []*Descriptor{DefaultDescriptor()}, nil
	}

	descs := make([]*Descriptor, 0, len(selectors))
	for _, sel := range selectors {
		desc, err := ParseSelector(sel)
		if err != nil {
			return nil, err
		}
		descs = append(descs, desc)
	}
	return descs, nil
}

// splitModifiers splits "name/key=value,key=value/" into the base name and
// its modifier map.
func splitModifiers(selector string) (string, map[string]string, error) {
	base, rest, found := strings.Cut(selector, "/")
	if !found {
		return base, nil, nil
	}

	rest, ok := strings.CutSuffix(rest, "/")
	if !ok {
		return "", nil, fmt.Errorf("unterminated modifier list in event %q", selector)
	}

	mods := make(map[string]string)
	for _, pair := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return "", nil, fmt.Errorf("invalid modifier %q in event %q", pair, selector)
		}
		mods[key] = value
	}
	return base, mods, nil
}
