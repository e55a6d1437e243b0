// Package privilege provides utilities for detecting whether the process has
// enough privilege to open kernel performance counters, and for producing a
// useful remediation hint when it does not.
package privilege

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const paranoidPath = "/proc/sys/kernel/perf_event_paranoid"

// IsRoot checks if the current process is running with root privileges (euid
// == 0).
func IsRoot() bool {
	return os.Geteuid() == 0
}

// IsRunningUnderSudo checks if the process is running under sudo by checking
// for the SUDO_USER environment variable.
func IsRunningUnderSudo() bool {
	return os.Getenv("SUDO_USER") != ""
}

// PerfEventParanoid returns the current perf_event_paranoid sysctl value.
// Higher values restrict unprivileged access to performance counters.
func PerfEventParanoid() (int, error) {
	data, err := os.ReadFile(paranoidPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", paranoidPath, err)
	}

	value, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid perf_event_paranoid value %q: %w", strings.TrimSpace(string(data)), err)
	}

	return value, nil
}

// ParanoidHint builds the remediation message shown when opening a counter
// fails with a permission error.
func ParanoidHint() string {
	var sb strings.Builder
	sb.WriteString("permission to open performance counters denied")

	if value, err := PerfEventParanoid(); err == nil {
		fmt.Fprintf(&sb, " (kernel.perf_event_paranoid = %d)", value)
	}

	sb.WriteString(".\n")
	if IsRoot() {
		sb.WriteString("Grant CAP_PERFMON or lower the restriction with:\n")
	} else if IsRunningUnderSudo() {
		sb.WriteString("sudo dropped the capability; grant CAP_PERFMON or lower the restriction with:\n")
	} else {
		sb.WriteString("Run as root, grant CAP_PERFMON, or lower the restriction with:\n")
	}
	sb.WriteString("  sysctl kernel.perf_event_paranoid=1")
	return sb.String()
}
