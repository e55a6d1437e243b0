//go:build linux

package display

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// termState is a saved terminal line discipline, restored on loop exit.
type termState struct {
	fd    int
	saved unix.Termios
}

// enterCbreak disables canonical input buffering and local echo so single
// keypresses are observable without a newline. VMIN and VTIME are zeroed
// so reads never block on their own; waiting happens in waitKey's poll.
func enterCbreak(fd int) (*termState, error) {
	saved, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, fmt.Errorf("failed to get terminal attributes: %w", err)
	}

	raw := *saved
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, fmt.Errorf("failed to set terminal attributes: %w", err)
	}

	return &termState{fd: fd, saved: *saved}, nil
}

// restore puts the original line discipline back, flushing pending input.
func (s *termState) restore() error {
	if err := unix.IoctlSetTermios(s.fd, unix.TCSETSF, &s.saved); err != nil {
		return fmt.Errorf("failed to restore terminal attributes: %w", err)
	}
	return nil
}

// waitKey waits up to timeout for a keypress and returns it. The second
// return value is false on timeout.
func waitKey(fd int, timeout time.Duration) (byte, bool, error) {
	pollfds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}

	n, err := unix.Poll(pollfds, int(timeout.Milliseconds()))
	if err == unix.EINTR || n == 0 {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to poll keyboard: %w", err)
	}

	var buf [1]byte
	rn, err := unix.Read(fd, buf[:])
	if err != nil || rn == 0 {
		return 0, false, nil
	}
	return buf[0], true, nil
}
