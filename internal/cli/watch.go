package cli

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/roach88/ankicheck/internal/harness"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Source   scenarioSource
	Schedule string
	Count    int
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch [scenario-path...]",
		Short: "Re-run verification on a cron schedule",
		Long: `Run verification scenarios immediately and then on a cron schedule
until interrupted. Scenario selection works as for verify.

The schedule defaults to watch.schedule from the configuration. A run that
is still going when the next one is due causes that tick to be skipped.
With --count, watch stops after that many runs and exits with the status
of the last run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Source.Paths = args
			return runWatch(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Source.Collection, "collection", "", "collection.anki2 for the default scenario")
	cmd.Flags().StringVar(&opts.Source.Document, "document", "", "reference markdown document for the default scenario")
	cmd.Flags().StringVar(&opts.Source.Deck, "deck", "", "deck to check (overrides scenarios and config)")
	cmd.Flags().StringVar(&opts.Source.Filter, "filter", "", "only run scenario files whose name contains this")
	cmd.Flags().StringVar(&opts.Schedule, "schedule", "", "cron schedule (default from config)")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "stop after this many runs (0 runs until interrupted)")

	return cmd
}

func runWatch(ctx context.Context, opts *WatchOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger := opts.Logger

	if opts.Count < 0 {
		return f.Fail(ExitCommandError, CodeInvalidArgs, "invalid --count", nil)
	}

	schedule := opts.Schedule
	if schedule == "" {
		schedule = opts.Config.Watch.Schedule
	}
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return f.Fail(ExitCommandError, CodeWatchSchedule, "invalid schedule", err)
	}

	scenarios, err := opts.Source.load(opts.Config.Verify.Deck)
	if err != nil {
		return f.Fail(ExitCommandError, CodeScenario, "loading scenarios", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := &watcher{opts: opts.RootOptions, f: f, scenarios: scenarios, limit: opts.Count, stop: cancel}

	// First run happens before the scheduler starts so it never overlaps a tick.
	w.run(ctx)
	if ctx.Err() != nil {
		return w.exitErr()
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))),
		cron.SkipIfStillRunning(cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))),
	))
	c.Schedule(sched, cron.FuncJob(func() { w.run(ctx) }))
	c.Start()
	logger.Info("watch scheduler started", "schedule", schedule, "scenarios", len(scenarios))

	<-ctx.Done()

	logger.Info("watch shutting down")
	stopped := c.Stop()
	<-stopped.Done()
	return w.exitErr()
}

// watcher runs the scenario set on each tick and remembers the outcome of
// the last run.
type watcher struct {
	opts      *RootOptions
	f         *OutputFormatter
	scenarios []*harness.Scenario
	limit     int
	stop      context.CancelFunc

	mu     sync.Mutex
	runs   int
	failed bool
}

func (w *watcher) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.runs++
	logger := w.opts.Logger.With("run", w.runs)
	logger.Debug("watch run starting")

	report, err := verifyOnce(ctx, w.opts, w.scenarios)
	switch {
	case err != nil && ctx.Err() != nil:
		// Interrupted mid-run; keep the previous outcome.
		return
	case err != nil:
		logger.Error("watch run failed", "error", err)
		_ = w.f.Error(CodeRun, "running scenarios", err.Error())
		w.failed = true
	default:
		if werr := writeReport(w.f, report); werr != nil {
			logger.Error("writing report", "error", werr)
		}
		w.failed = !report.OK()
		logger.Info("watch run finished", "passed", report.Passed, "failed", report.Failed, "skipped", report.Skipped)
	}

	if w.limit > 0 && w.runs >= w.limit {
		w.stop()
	}
}

// exitErr maps the last run's outcome to an exit error.
func (w *watcher) exitErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failed {
		return NewExitError(ExitFailure, "last watch run failed")
	}
	return nil
}
