// Package sysfs provides utilities for interacting with the /sys filesystem.
package sysfs

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

const onlineCPUPath = "/sys/devices/system/cpu/online"

// OnlineCPUs returns the list of online CPU numbers, parsed from the
// kernel's range list format ("0-3" or "0,2-5,7"). Falls back to
// 0..NumCPU-1 when the sysfs file is unavailable.
func OnlineCPUs() ([]int, error) {
	data, err := os.ReadFile(onlineCPUPath)
	if err != nil {
		cpus := make([]int, runtime.NumCPU())
		for i := range cpus {
			cpus[i] = i
		}
		return cpus, nil
	}

	return parseCPURangeList(strings.TrimSpace(string(data)))
}

// parseCPURangeList parses the kernel cpulist format, e.g. "0-3,5,7-8".
func parseCPURangeList(list string) ([]int, error) {
	if list == "" {
		return nil, fmt.Errorf("empty cpu list")
	}

	var cpus []int
	for _, part := range strings.Split(list, ",") {
		lo, hi, ok := strings.Cut(part, "-")
		start, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid cpu list entry %q: %w", part, err)
		}

		end := start
		if ok {
			end, err = strconv.Atoi(hi)
			if err != nil {
				return nil, fmt.Errorf("invalid cpu range %q: %w", part, err)
			}
		}
		if end < start {
			return nil, fmt.Errorf("inverted cpu range %q", part)
		}

		for cpu := start; cpu <= end; cpu++ {
			cpus = append(cpus, cpu)
		}
	}

	return cpus, nil
}
