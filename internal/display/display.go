//go:build linux

package display

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/perftop-io/perftop/internal/errors"
	"github.com/perftop-io/perftop/internal/hist"
)

const refreshInterval = 2 * time.Second

const clearScreen = "\x1b[H\x1b[2J"

// Loop renders the histograms every refresh interval until the user
// presses 'q' or the context is cancelled. It owns stdout and the
// terminal line discipline for its lifetime; the sampling loop keeps
// feeding the tables concurrently.
func Loop(ctx context.Context, tables []*hist.Table, geom *Geometry, logger zerolog.Logger) error {
	log := logger.With().Str("component", "display").Logger()

	stdin := int(os.Stdin.Fd())
	state, err := enterCbreak(stdin)
	if err != nil {
		// Not a tty: render without keyboard control, quit on cancel only.
		log.Warn().Err(err).Msg("Keyboard unavailable, press Ctrl-C to quit")
	} else {
		defer errors.DeferRestore(log, state.restore, "Failed to restore terminal")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		render(tables, geom)

		if state == nil {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(refreshInterval):
			}
			continue
		}

		key, pressed, err := waitKey(stdin, refreshInterval)
		if err != nil {
			return err
		}
		if pressed && key == 'q' {
			return nil
		}
	}
}

// render clears the screen and draws each table into its share of the
// remaining rows, most recent geometry first.
func render(tables []*hist.Table, geom *Geometry) {
	rows, cols := geom.Get()

	fmt.Fprint(os.Stdout, clearScreen)

	// Keep one line free so the final newline does not scroll the top
	// of the display away.
	avail := rows - 1
	for _, table := range tables {
		if avail < 3 {
			return
		}
		table.CollapseResort()
		snap := table.Snapshot(avail - 2)
		lines := RenderTable(snap, avail-2, cols)
		for _, line := range lines {
			fmt.Fprintln(os.Stdout, line)
		}
		avail -= len(lines)
	}
}
