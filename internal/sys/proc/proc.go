// Package proc provides utilities for reading process and kernel symbol
// information from the /proc filesystem on Linux systems.
package proc

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// KernelSymbol is one entry parsed from /proc/kallsyms.
type KernelSymbol struct {
	Address uint64
	Name    string
	Module  string // Empty for built-in symbols.
}

// ListThreads returns the thread IDs of the given process by listing
// /proc/<pid>/task.
func ListThreads(pid int) ([]int, error) {
	taskDir := filepath.Join("/proc", strconv.Itoa(pid), "task")

	entries, err := os.ReadDir(taskDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", taskDir, err)
	}

	tids := make([]int, 0, len(entries))
	for _, entry := range entries {
		tid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		tids = append(tids, tid)
	}

	if len(tids) == 0 {
		return nil, fmt.Errorf("no threads found for pid %d", pid)
	}

	return tids, nil
}

// Comm returns the command name of a process or thread. /proc/<tid> is
// addressable for any task id, not only thread group leaders.
func Comm(tid int) (string, error) {
	data, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(tid), "comm"))
	if err != nil {
		return "", fmt.Errorf("failed to read comm for task %d: %w", tid, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ReadKallsyms parses /proc/kallsyms into a symbol list. Only text symbols
// (t/T/w/W) are kept. The second return value counts entries whose address
// read as zero, which happens when the caller lacks permission to see
// kernel addresses.
func ReadKallsyms() ([]KernelSymbol, int, error) {
	//nolint:gosec // G304: Fixed path in the /proc filesystem.
	f, err := os.Open("/proc/kallsyms")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open /proc/kallsyms: %w", err)
	}
	defer f.Close() // nolint:errcheck

	var symbols []KernelSymbol
	zeroAddresses := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}

		// Format: address type name [module]
		symType := fields[1]
		if symType != "t" && symType != "T" && symType != "w" && symType != "W" {
			continue
		}

		addr, err := strconv.ParseUint(fields[0], 16, 64)
		if err != nil {
			continue
		}
		if addr == 0 {
			zeroAddresses++
			continue
		}

		sym := KernelSymbol{
			Address: addr,
			Name:    fields[2],
		}
		if len(fields) >= 4 {
			sym.Module = strings.Trim(fields[3], "[]")
		}
		symbols = append(symbols, sym)
	}

	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to scan /proc/kallsyms: %w", err)
	}

	return symbols, zeroAddresses, nil
}
