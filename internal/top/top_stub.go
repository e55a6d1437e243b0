//go:build !linux

package top

import (
	"context"
	"fmt"
)

// Run is unavailable without the kernel perf subsystem.
func Run(_ context.Context, _ Config) error {
	return fmt.Errorf("profiling requires linux perf events")
}
