package top

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/perftop-io/perftop/internal/event"
	"github.com/perftop-io/perftop/internal/hist"
)

// pollInterval is the idle backoff between drains when no new samples have
// arrived.
const pollInterval = 100 * time.Millisecond

// Config is a fully parsed profiling run.
type Config struct {
	Descriptors []*event.Descriptor
	Freq        uint64
	Count       uint64
	MmapPages   int
	Grouped     bool
	Inherit     bool
	SortKeys    []hist.SortKey
	Logger      zerolog.Logger
}

// WaitError reports a fatal failure of the sampling loop's idle poll.
type WaitError struct {
	Err error
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("failed to poll event descriptors: %v", e.Err)
}

func (e *WaitError) Unwrap() error {
	return e.Err
}
