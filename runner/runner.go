// Package runner executes catalog entries against the live application
// through independent workers. Workers share nothing but the result store;
// the sequential aggregation phase begins only after the barrier, when
// every worker has terminated.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/skuqa/sku-acceptor/store"
	"github.com/skuqa/sku-acceptor/types"
)

const DefaultConcurrency = 4

// Config contains runner configuration.
type Config struct {
	Store    *store.Store
	Executor Executor
	// Concurrency is the number of parallel workers; 0 means DefaultConcurrency.
	Concurrency int
	// ScreenshotDir holds the shared screenshot asset tree. Assets for an
	// index are purged before its executor runs, so refs are replaced on
	// rerun, never appended.
	ScreenshotDir    string
	ProgressInterval time.Duration
	Log              zerolog.Logger
}

// Runner drives one executor per catalog entry through a worker pool.
type Runner struct {
	cfg    Config
	tracer trace.Tracer
}

// NewRunner creates a runner.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Runner{
		cfg:    cfg,
		tracer: otel.Tracer("sku-acceptor/runner"),
	}, nil
}

// Run executes every spec and returns once all workers have terminated.
// Failures are contained per index: an executor error becomes a Fail
// record, a dead worker simply leaves its index absent from the store, and
// a missed store write is logged, never propagated.
func (r *Runner) Run(ctx context.Context, specs []types.TestSpec) {
	progress := newProgressTracker(r.cfg.Log, len(specs), r.cfg.ProgressInterval)
	defer progress.Stop()

	jobs := make(chan types.TestSpec)
	done := make(chan struct{})

	for w := 0; w < r.cfg.Concurrency; w++ {
		go func(worker int) {
			defer func() { done <- struct{}{} }()
			for spec := range jobs {
				r.runOne(ctx, spec, progress)
			}
		}(w)
	}

	for _, spec := range specs {
		jobs <- spec
	}
	close(jobs)

	// Barrier: the aggregation phase must not start before every worker
	// has terminated.
	for w := 0; w < r.cfg.Concurrency; w++ {
		<-done
	}
}

func (r *Runner) runOne(ctx context.Context, spec types.TestSpec, progress *progressTracker) {
	ctx, span := r.tracer.Start(ctx, "test.execute", trace.WithAttributes(
		attribute.Int("test.index", spec.Index),
		attribute.String("test.query", spec.Query),
	))
	defer span.End()

	progress.StartTest(spec.Index)

	r.purgeScreenshots(spec.Index)

	outcome, err := r.execute(ctx, spec)
	if err != nil {
		if isPanic(err) {
			// Treat a panicking executor like a dead worker: the index
			// stays absent from the store and the merger falls back to
			// historical data.
			r.cfg.Log.Error().Err(err).Int("index", spec.Index).Msg("executor panicked, leaving index unrecorded")
			span.SetStatus(codes.Error, "executor panic")
			progress.CompleteTest(spec.Index, types.StatusNotRun)
			return
		}
		outcome = types.TestOutcome{
			Status:       types.StatusFail,
			ErrorMessage: stripansi.Strip(err.Error()),
		}
	}
	if outcome.RankBucket == "" {
		outcome.RankBucket = types.RankBucket(outcome.MatchPosition)
	}

	span.SetAttributes(attribute.String("test.status", string(outcome.Status)))
	if outcome.Status == types.StatusFail {
		span.SetStatus(codes.Error, outcome.ErrorMessage)
	}

	if err := r.cfg.Store.Submit(spec.Index, outcome); err != nil {
		// Already logged by the store; the index falls through the merge
		// priority chain.
		span.SetStatus(codes.Error, "result submit failed")
	}
	progress.CompleteTest(spec.Index, outcome.Status)
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("executor panicked: %v", e.value)
}

func isPanic(err error) bool {
	_, ok := err.(*panicError)
	return ok
}

func (r *Runner) execute(ctx context.Context, spec types.TestSpec) (outcome types.TestOutcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &panicError{value: rec}
		}
	}()
	return r.cfg.Executor.Execute(ctx, spec)
}

// purgeScreenshots removes stale assets for an index before its executor
// captures new ones. Assets are named with a zero-padded index prefix.
func (r *Runner) purgeScreenshots(index int) {
	if r.cfg.ScreenshotDir == "" {
		return
	}
	entries, err := os.ReadDir(r.cfg.ScreenshotDir)
	if err != nil {
		return
	}
	prefix := ScreenshotPrefix(index)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		path := filepath.Join(r.cfg.ScreenshotDir, entry.Name())
		if err := os.Remove(path); err != nil {
			r.cfg.Log.Warn().Err(err).Str("path", path).Msg("failed to purge stale screenshot")
		} else {
			r.cfg.Log.Debug().Str("path", path).Msg("purged stale screenshot")
		}
	}
}

// ScreenshotPrefix is the filename prefix tying a screenshot asset to its
// catalog index.
func ScreenshotPrefix(index int) string {
	return fmt.Sprintf("%03d_", index)
}
