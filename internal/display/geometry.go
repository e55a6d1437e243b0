//go:build linux

// Package display runs the concurrent render loop: terminal geometry
// tracking, the non-canonical keyboard mode, and the periodic
// snapshot-and-render cycle.
package display

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

const (
	defaultRows = 24
	defaultCols = 80
)

// Geometry holds the current terminal dimensions. The resize handler is
// the single writer; the display loop reads it at every render. The packed
// atomic keeps the pair race-free without a lock.
type Geometry struct {
	packed atomic.Uint64
}

// NewGeometry captures the current terminal size.
func NewGeometry() *Geometry {
	g := &Geometry{}
	g.Capture()
	return g
}

// Set records new dimensions.
func (g *Geometry) Set(rows, cols int) {
	g.packed.Store(uint64(uint32(rows))<<32 | uint64(uint32(cols)))
}

// Get returns the last recorded dimensions.
func (g *Geometry) Get() (rows, cols int) {
	v := g.packed.Load()
	return int(uint32(v >> 32)), int(uint32(v))
}

// Capture re-reads the terminal size from the tty, falling back to 24x80
// when no terminal is attached.
func (g *Geometry) Capture() {
	if ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ); err == nil && ws.Row > 0 {
		g.Set(int(ws.Row), int(ws.Col))
		return
	}
	if cols, rows, err := term.GetSize(int(os.Stdout.Fd())); err == nil && rows > 0 {
		g.Set(rows, cols)
		return
	}
	g.Set(defaultRows, defaultCols)
}

// WatchResize re-captures the dimensions whenever the terminal delivers a
// resize notification. The handler does nothing else.
func (g *Geometry) WatchResize(ctx context.Context) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGWINCH)

	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				g.Capture()
			}
		}
	}()
}
