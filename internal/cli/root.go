// Package cli wires the command line surface: flag parsing, config file
// defaults, and handoff to the profiling run.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perftop-io/perftop/internal/config"
	"github.com/perftop-io/perftop/internal/event"
	"github.com/perftop-io/perftop/internal/hist"
	"github.com/perftop-io/perftop/internal/logging"
	"github.com/perftop-io/perftop/internal/safe"
	"github.com/perftop-io/perftop/internal/top"
	"github.com/perftop-io/perftop/pkg/version"
)

type options struct {
	count     uint64
	events    []string
	freq      uint64
	group     bool
	inherit   bool
	mmapPages int
	sort      string
	verbosity int

	// tracks which flags the user set, so config file values only fill
	// the gaps
	freqSet  bool
	mmapSet  bool
	sortSet  bool
	eventSet bool
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "perftop",
		Short: "Live system profile based on perf events",
		Long: `Samples hardware and software counters system-wide and displays a
continuously updated ranked profile of where cycles are spent.

Defaults to the hardware cycle counter at 1000 Hz; falls back to the
software cpu-clock on machines without cycle counter access. Press 'q'
to quit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.freqSet = cmd.Flags().Changed("freq")
			opts.mmapSet = cmd.Flags().Changed("mmap-pages")
			opts.sortSet = cmd.Flags().Changed("sort")
			opts.eventSet = cmd.Flags().Changed("event")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().Uint64VarP(&opts.count, "count", "c", 0, "event period between samples (overrides --freq)")
	cmd.Flags().StringArrayVarP(&opts.events, "event", "e", nil, "event selector (repeatable): name, name/period=N/, or rNNN")
	cmd.Flags().Uint64VarP(&opts.freq, "freq", "F", config.DefaultFreq, "sampling frequency in Hz")
	cmd.Flags().BoolVarP(&opts.group, "group", "g", false, "open the events as one counter group per cpu")
	cmd.Flags().BoolVarP(&opts.inherit, "inherit", "i", false, "extend counters to child tasks")
	cmd.Flags().IntVarP(&opts.mmapPages, "mmap-pages", "m", config.DefaultMmapPages, "ring buffer size in data pages (power of two)")
	cmd.Flags().StringVarP(&opts.sort, "sort", "s", config.DefaultSort, "sort keys: comma-separated from pid, comm, dso, symbol")
	cmd.Flags().CountVarP(&opts.verbosity, "verbose", "v", "increase log verbosity (repeatable)")

	cmd.AddCommand(newVersionCmd())

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	logger := logging.New(logging.Config{
		Level:  logging.FromVerbosity(opts.verbosity),
		Pretty: true,
	})

	// Config file fills in whatever the flags left at defaults.
	fileCfg, err := config.NewLoader().Load()
	if err != nil {
		return err
	}
	if !opts.freqSet {
		// The loader guarantees a positive freq, so clamping cannot fire.
		opts.freq, _ = safe.IntToUint64(fileCfg.Freq)
	}
	if !opts.mmapSet {
		opts.mmapPages = fileCfg.MmapPages
	}
	if !opts.sortSet {
		opts.sort = fileCfg.Sort
	}
	if !opts.eventSet && len(fileCfg.Events) > 0 {
		opts.events = fileCfg.Events
	}

	descs, err := event.ParseSelectors(opts.events)
	if err != nil {
		return err
	}

	sortKeys, err := hist.ParseSortKeys(opts.sort)
	if err != nil {
		return err
	}

	if opts.mmapPages <= 0 || opts.mmapPages&(opts.mmapPages-1) != 0 {
		return fmt.Errorf("invalid mmap page count %d: must be a power of two", opts.mmapPages)
	}

	return top.Run(cmd.Context(), top.Config{
		Descriptors: descs,
		Freq:        opts.freq,
		Count:       opts.count,
		MmapPages:   opts.mmapPages,
		Grouped:     opts.group,
		Inherit:     opts.inherit,
		SortKeys:    sortKeys,
		Logger:      logger,
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("perftop version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command under a cancellable context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
