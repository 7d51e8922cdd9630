package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/ankicheck/internal/reference"
)

// RunIDGenerator produces the id of each run.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered UUIDv7 run ids.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Option configures a run.
type Option func(*runner)

// WithLogger sets the logger. Runs are silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(r *runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRunIDGenerator replaces the UUIDv7 run id generator. Tests use a
// fixed generator so results compare byte for byte.
func WithRunIDGenerator(gen RunIDGenerator) Option {
	return func(r *runner) {
		if gen != nil {
			r.runIDs = gen
		}
	}
}

// WithSyntax sets the markers used to read the reference document.
func WithSyntax(syntax reference.Syntax) Option {
	return func(r *runner) {
		r.syntax = syntax
	}
}

type runner struct {
	logger *slog.Logger
	runIDs RunIDGenerator
	syntax reference.Syntax
}

// Run executes a scenario and returns its result.
//
// Execution flow:
// 1. Open the collection read-only (a missing file skips the run)
// 2. Run every check in order against the shared collection
// 3. Close the collection, on every exit path
//
// A failing or panicking check is recorded in the result and does not
// stop the remaining checks. The returned error is reserved for invalid
// scenarios and for failures to open or close the collection.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (result *Result, err error) {
	r := &runner{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs unless configured
		runIDs: UUIDv7Generator{},
		syntax: reference.DefaultSyntax(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if scenario == nil {
		return nil, fmt.Errorf("scenario is nil")
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	result = NewResult(r.runIDs.Generate(), scenario.Name)
	logger := r.logger.With("run_id", result.RunID, "scenario", scenario.Name)

	col, teardown, err := SetupContext(ctx, scenario.Collection)
	if IsSkip(err) {
		result.Skip(err.Error())
		logger.Info("scenario skipped", "reason", result.SkipReason)
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	defer func() {
		if cerr := teardown(); cerr != nil {
			logger.Error("teardown failed", "error", cerr)
			if err == nil {
				err = fmt.Errorf("teardown: %w", cerr)
			}
		}
	}()

	logger.Debug("collection opened",
		"path", scenario.Collection,
		"layout", col.Layout().String(),
		"schema_version", col.SchemaVersion(),
	)

	cc := &checkContext{ctx: ctx, col: col, scenario: scenario, syntax: r.syntax}
	for _, c := range scenario.Checks {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		checkErr := runCheck(cc, c)
		result.AddCheck(c.DisplayName(), c.Type, checkErr)
		if checkErr != nil {
			logger.Warn("check failed", "check", c.DisplayName(), "error", checkErr)
		} else {
			logger.Debug("check passed", "check", c.DisplayName())
		}
	}

	logger.Info("scenario finished", "pass", result.Pass, "failed", len(result.Failed()))
	return result, nil
}

// runCheck runs one check, converting a panic into that check's failure.
func runCheck(cc *checkContext, c Check) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("check %s panicked: %v", c.DisplayName(), p)
		}
	}()

	fn, ok := checkFuncs[c.Type]
	if !ok {
		return fmt.Errorf("unknown check type %q", c.Type)
	}
	return fn(cc, c)
}

// RunAll runs scenarios in order. It stops at the first scenario that
// returns an error; check failures do not stop it.
func RunAll(ctx context.Context, scenarios []*Scenario, opts ...Option) ([]*Result, error) {
	results := make([]*Result, 0, len(scenarios))
	for _, s := range scenarios {
		res, err := Run(ctx, s, opts...)
		if err != nil {
			return results, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}
