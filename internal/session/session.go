// Package session synthesizes the process inventory that gives samples
// their owning command names.
package session

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/perftop-io/perftop/internal/sys/proc"
)

// Inventory maps task ids to command names. It is synthesized once at
// startup, before any sample arrives, and lazily refreshed on misses for
// tasks born afterwards.
type Inventory struct {
	mu     sync.RWMutex
	comms  map[int32]string
	logger zerolog.Logger
}

// Synthesize walks the current process table and records the command name
// of every process and each of its threads. Failures are degraded, not
// fatal: samples from unseen tasks render with a pid placeholder.
func Synthesize(logger zerolog.Logger) *Inventory {
	inv := &Inventory{
		comms:  make(map[int32]string),
		logger: logger.With().Str("component", "session").Logger(),
	}

	procs, err := process.Processes()
	if err != nil {
		inv.logger.Warn().Err(err).Msg("Failed to enumerate processes, command names will be incomplete")
		return inv
	}

	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			// The process may be gone already; nothing to record.
			continue
		}
		inv.comms[p.Pid] = name

		// Samples attribute work to the thread group, but record the
		// threads too so tid-keyed lookups hit.
		tids, err := proc.ListThreads(int(p.Pid))
		if err != nil {
			continue
		}
		for _, tid := range tids {
			inv.comms[int32(tid)] = name
		}
	}

	inv.logger.Info().Int("task_count", len(inv.comms)).Msg("Process inventory synthesized")
	return inv
}

// Comm returns the command name for a task id. A miss triggers one lookup
// for tasks that started after synthesis; if that also misses the task is
// rendered as ":<pid>".
func (inv *Inventory) Comm(pid uint32) string {
	p := int32(pid)

	inv.mu.RLock()
	name, ok := inv.comms[p]
	inv.mu.RUnlock()
	if ok {
		return name
	}

	// /proc/<tid>/comm resolves any task id, not just group leaders.
	if fresh, err := proc.Comm(int(p)); err == nil && fresh != "" {
		inv.mu.Lock()
		inv.comms[p] = fresh
		inv.mu.Unlock()
		return fresh
	}

	if pr, err := process.NewProcess(p); err == nil {
		if fresh, err := pr.Name(); err == nil {
			inv.mu.Lock()
			inv.comms[p] = fresh
			inv.mu.Unlock()
			return fresh
		}
	}

	placeholder := fmt.Sprintf(":%d", pid)
	inv.mu.Lock()
	inv.comms[p] = placeholder
	inv.mu.Unlock()
	return placeholder
}
