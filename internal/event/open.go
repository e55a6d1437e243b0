package event

import (
	"github.com/rs/zerolog"

	"github.com/perftop-io/perftop/internal/privilege"
)

// target is one (pid, cpu) pair a descriptor is opened against.
type target struct {
	pid int
	cpu int
}

// openFunc performs one kernel open attempt for a descriptor against one
// target, returning the event fd.
type openFunc func(d *Descriptor, pid, cpu, groupFD int) (int, error)

// openState tracks the per-descriptor negotiation state machine. A
// descriptor moves Requested -> FallbackAttempted at most once; the single
// transition is what makes the exactly-once fallback guarantee checkable.
type openState int

const (
	stateRequested openState = iota
	stateFallbackAttempted
)

// openResult is a successfully negotiated descriptor: the descriptor
// actually opened (the substitute, if fallback fired) and one fd per
// target, in target order.
type openResult struct {
	desc *Descriptor
	fds  []int
}

// negotiateDescriptor opens one descriptor against every target, applying
// the capability fallback rules:
//
//   - insufficient privilege aborts negotiation with a remediation hint;
//   - an unsupported-event error on the default hardware cycle counter
//     substitutes the software cpu-clock equivalent, preserving the rate
//     settings, and retries exactly once;
//   - any second unsupported-event error, or one on a non-cycle event, is
//     fatal;
//   - anything else is fatal with the numeric cause.
//
// groupFDs supplies the per-target counter-group leader fd (-1 when the
// descriptor is itself the leader or grouping is off). Descriptors are
// negotiated independently; there is no shared fallback state across group
// members.
func negotiateDescriptor(d *Descriptor, targets []target, groupFDs []int, open openFunc, closeFD func(int) error, logger zerolog.Logger) (*openResult, error) {
	state := stateRequested
	current := d

retry:
	fds := make([]int, 0, len(targets))
	for i, tgt := range targets {
		fd, err := open(current, tgt.pid, tgt.cpu, groupFDs[i])
		if err == nil {
			fds = append(fds, fd)
			continue
		}

		// Nothing from this attempt survives a failure.
		for _, opened := range fds {
			_ = closeFD(opened)
		}

		errno := errnoOf(err)
		switch {
		case isPrivilegeErrno(errno):
			return nil, &PrivilegeError{Errno: errno, Hint: privilege.ParanoidHint()}

		case isUnsupportedErrno(errno):
			if state == stateRequested && current.isDefaultCycles() {
				logger.Warn().
					Str("event", current.Name).
					Msg("Cycles event not supported, falling back to cpu-clock-ticks")
				state = stateFallbackAttempted
				current = current.fallback()
				goto retry
			}
			return nil, &UnsupportedEventError{Name: current.String()}

		case isExhaustionErrno(errno):
			return nil, &ResourceExhaustionError{Errno: errno}

		default:
			return nil, &OpenError{Name: current.String(), Errno: errno}
		}
	}

	return &openResult{desc: current, fds: fds}, nil
}
