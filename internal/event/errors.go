package event

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrInvalidConfig reports a sampling configuration where both the global
// frequency and the fallback period resolve to zero.
var ErrInvalidConfig = errors.New("frequency and count are both zero")

// PrivilegeError reports an open attempt rejected for insufficient
// privilege. It aborts the entire negotiation and carries a remediation
// hint for the user.
type PrivilegeError struct {
	Errno syscall.Errno
	Hint  string
}

func (e *PrivilegeError) Error() string {
	return fmt.Sprintf("opening performance counters failed with %d (%s): %s",
		int(e.Errno), e.Errno.Error(), e.Hint)
}

// UnsupportedEventError reports an event the kernel cannot count, after any
// eligible fallback has already been attempted.
type UnsupportedEventError struct {
	Name string
}

func (e *UnsupportedEventError) Error() string {
	return fmt.Sprintf("the %s event is not supported", e.Name)
}

// ResourceExhaustionError reports open failure from fd or memory
// exhaustion.
type ResourceExhaustionError struct {
	Errno syscall.Errno
}

func (e *ResourceExhaustionError) Error() string {
	return fmt.Sprintf("resource exhaustion opening performance counters: %d (%s)",
		int(e.Errno), e.Errno.Error())
}

// OpenError reports any other open failure, with the numeric cause.
type OpenError struct {
	Name  string
	Errno syscall.Errno
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("opening the %s event failed with %d (%s); is CONFIG_PERF_EVENTS enabled in this kernel?",
		e.Name, int(e.Errno), e.Errno.Error())
}

// errnoOf extracts the errno from an open error, or zero.
func errnoOf(err error) syscall.Errno {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return 0
}

func isPrivilegeErrno(errno syscall.Errno) bool {
	return errno == syscall.EPERM || errno == syscall.EACCES
}

func isUnsupportedErrno(errno syscall.Errno) bool {
	return errno == syscall.ENOENT || errno == syscall.ENODEV || errno == syscall.EOPNOTSUPP
}

func isExhaustionErrno(errno syscall.Errno) bool {
	return errno == syscall.EMFILE || errno == syscall.ENFILE || errno == syscall.ENOMEM
}
