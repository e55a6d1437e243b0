//go:build linux

package ring

import (
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Buffer owns one mmap'd ring buffer: a metadata page followed by a
// power-of-two number of data pages.
type Buffer struct {
	fd   int
	mem  []byte
	meta *unix.PerfEventMmapPage
	rd   reader
}

// Map maps pages data pages (plus the metadata page) over the event fd.
// pages must be a power of two.
func Map(fd int, pages int) (*Buffer, error) {
	if pages <= 0 || pages&(pages-1) != 0 {
		return nil, &MappingError{Pages: pages, Cause: "page count must be a power of two"}
	}

	pageSize := unix.Getpagesize()
	size := (pages + 1) * pageSize

	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		merr := &MappingError{Pages: pages, Cause: err.Error()}
		if errno, ok := err.(syscall.Errno); ok {
			merr.Errno = errno
		}
		return nil, merr
	}

	b := &Buffer{
		fd:   fd,
		mem:  mem,
		meta: (*unix.PerfEventMmapPage)(unsafe.Pointer(&mem[0])),
	}
	b.rd = reader{
		head: &b.meta.Data_head,
		tail: &b.meta.Data_tail,
		data: mem[pageSize:],
	}
	return b, nil
}

// Next returns the next unread record, or false when the buffer reports no
// unread data. It never blocks and is safe to busy-poll.
func (b *Buffer) Next() (Record, bool) {
	return b.rd.next()
}

// FD returns the event file descriptor backing this buffer, for polling.
func (b *Buffer) FD() int {
	return b.fd
}

// Close unmaps the ring buffer region. The event fd stays open; its owner
// closes it.
func (b *Buffer) Close() error {
	if b.mem == nil {
		return nil
	}
	err := unix.Munmap(b.mem)
	b.mem = nil
	b.meta = nil
	b.rd = reader{}
	return err
}

// Wait blocks until any of the fds has readable data or the timeout
// elapses. Returns the number of ready descriptors. EINTR reports zero
// ready descriptors rather than an error, so a window resize does not kill
// the sampling loop.
func Wait(fds []int, timeout time.Duration) (int, error) {
	pollfds := make([]unix.PollFd, len(fds))
	for i, fd := range fds {
		pollfds[i] = unix.PollFd{Fd: int32(fd), Events: unix.POLLIN}
	}

	n, err := unix.Poll(pollfds, int(timeout.Milliseconds()))
	if err == unix.EINTR {
		return 0, nil
	}
	return n, err
}
