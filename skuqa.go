// Package skuqa wires the acceptance pipeline: load the catalog, drive
// the search driver through parallel workers, merge fresh results with
// the previous run's export, and render the report artifact set.
package skuqa

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/skuqa/sku-acceptor/catalog"
	"github.com/skuqa/sku-acceptor/merge"
	"github.com/skuqa/sku-acceptor/metrics"
	"github.com/skuqa/sku-acceptor/reporting"
	"github.com/skuqa/sku-acceptor/runner"
	"github.com/skuqa/sku-acceptor/store"
	"github.com/skuqa/sku-acceptor/types"
)

// CSVExportName is the spreadsheet-facing artifact, doubling as the
// previous-run history source for the next run.
const CSVExportName = "results.csv"

// StoreName is the shared result snapshot the workers write during a run.
const StoreName = "results.json"

// Service runs acceptance suites, either once or periodically.
type Service struct {
	ctx      context.Context
	config   *Config
	version  string
	executor runner.Executor
	htmlSink *reporting.HTMLSink

	lastSummary atomic.Pointer[types.Summary]

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*Service, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug().
		Str("catalog", config.CatalogPath).
		Str("driver", config.DriverCommand).
		Str("outputDir", config.OutputDir).
		Float64("threshold", config.Threshold).
		Dur("runInterval", config.RunInterval).
		Bool("runOnce", config.RunOnce).
		Msg("creating service")

	htmlSink, err := reporting.NewHTMLSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create html sink: %w", err)
	}

	return &Service{
		ctx:              ctx,
		config:           config,
		version:          version,
		executor:         runner.NewCommandExecutor(config.DriverCommand, config.DriverArgs, config.Log),
		htmlSink:         htmlSink,
		done:             make(chan struct{}),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the suite immediately and, unless in run-once mode, keeps
// rerunning it at the configured interval.
func (s *Service) Start(ctx context.Context) error {
	s.ctx = ctx
	s.done = make(chan struct{})
	s.running.Store(true)

	if s.config.RunOnce {
		s.config.Log.Info().Msg("starting sku-acceptor in run-once mode")
	} else {
		s.config.Log.Info().Dur("interval", s.config.RunInterval).Msg("starting sku-acceptor in continuous mode")
	}

	err := s.runSuite()
	if err != nil && IsRuntimeError(err) {
		s.config.Log.Error().Err(err).Msg("runtime error running suite")
		metrics.RecordErrorDetails("suite run failed", err)
		return err
	}

	if s.config.RunOnce {
		s.config.Log.Info().Msg("suite completed, exiting (run-once mode)")
		if err != nil {
			// Threshold not met. The artifact set is complete; only the
			// exit code reflects the verdict.
			return err
		}
		go func() {
			s.shutdownCallback(nil)
		}()
		return nil
	}
	if err != nil {
		s.config.Log.Warn().Err(err).Msg("suite run completed below threshold")
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.config.Log.Debug().Dur("interval", s.config.RunInterval).Msg("starting periodic suite runner")

		for {
			select {
			case <-time.After(s.config.RunInterval):
				if !s.running.Load() {
					s.config.Log.Debug().Msg("service stopped, exiting periodic suite runner")
					return
				}
				s.config.Log.Info().Msg("running periodic suite")
				if err := s.runSuite(); err != nil {
					s.config.Log.Error().Err(err).Msg("periodic suite run failed")
					if IsRuntimeError(err) {
						metrics.RecordErrorDetails("suite run failed", err)
					}
				}

			case <-s.done:
				s.config.Log.Debug().Msg("done signal received, stopping periodic suite runner")
				return

			case <-ctx.Done():
				s.config.Log.Debug().Msg("context canceled, stopping periodic suite runner")
				s.running.Store(false)
				return
			}
		}
	}()
	s.config.Log.Debug().Msg("sku-acceptor started successfully")
	return nil
}

// runSuite executes one full run cycle. A *TestFailureError return means
// the pipeline worked but the pass rate missed the threshold; any other
// error is operational.
func (s *Service) runSuite() error {
	started := time.Now()
	runID := uuid.New().String()
	log := s.config.Log.With().Str("run_id", runID).Logger()

	suiteCfg := catalog.DefaultConfig()
	if s.config.SuiteConfigPath != "" {
		var err error
		suiteCfg, err = catalog.LoadConfig(s.config.SuiteConfigPath)
		if err != nil {
			return NewRuntimeError(fmt.Errorf("failed to load suite config: %w", err))
		}
	}

	specs, err := catalog.Load(s.config.CatalogPath, suiteCfg)
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to load catalog: %w", err))
	}
	log.Info().Int("tests", len(specs)).Msg("catalog loaded")

	if err := os.MkdirAll(s.config.OutputDir, 0755); err != nil {
		return NewRuntimeError(fmt.Errorf("failed to create output directory: %w", err))
	}

	// The previous run's CSV export is the history tier. Parse it before
	// anything overwrites it.
	previous, err := reporting.ParsePreviousExport(filepath.Join(s.config.OutputDir, CSVExportName))
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to read previous export: %w", err))
	}
	log.Debug().Int("previous", len(previous)).Msg("previous export parsed")

	resultStore := store.New(filepath.Join(s.config.OutputDir, StoreName), store.DefaultPolicy(), log)
	if err := resultStore.Reset(); err != nil {
		return NewRuntimeError(fmt.Errorf("failed to reset result store: %w", err))
	}

	screenshotDir := filepath.Join(s.config.OutputDir, reporting.ScreenshotDirName)
	if err := os.MkdirAll(screenshotDir, 0755); err != nil {
		return NewRuntimeError(fmt.Errorf("failed to create screenshot directory: %w", err))
	}

	r, err := runner.NewRunner(runner.Config{
		Store:            resultStore,
		Executor:         s.executor,
		Concurrency:      s.config.Concurrency,
		ScreenshotDir:    screenshotDir,
		ProgressInterval: s.config.ProgressInterval,
		Log:              log,
	})
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to create runner: %w", err))
	}
	r.Run(s.ctx, specs)

	records, err := resultStore.LoadAll()
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to load result snapshot: %w", err))
	}

	rows := merge.Merge(specs, records, previous)
	summary := merge.Summarize(rows, s.config.Threshold)
	s.lastSummary.Store(&summary)

	data := reporting.BuildReport(rows, summary, runID, catalog.FieldColumns(specs))
	if err := reporting.WriteCSV(filepath.Join(s.config.OutputDir, CSVExportName), data); err != nil {
		return NewRuntimeError(fmt.Errorf("failed to write csv export: %w", err))
	}
	if err := s.htmlSink.Write(s.config.OutputDir, data); err != nil {
		return NewRuntimeError(fmt.Errorf("failed to write html report: %w", err))
	}

	duration := time.Since(started)
	s.printResultsTable(rows, summary, duration)
	metrics.RecordRun(filepath.Base(s.config.CatalogPath), runID, summary, duration)

	log.Info().
		Str("status", string(summary.SuiteStatus)).
		Float64("pass_rate", summary.PassRate).
		Dur("duration", duration).
		Msg("suite run completed")

	if summary.SuiteStatus == types.SuiteFailed {
		return NewTestFailureError(fmt.Sprintf(
			"pass rate %.1f%% below threshold %.1f%% (%d/%d passed, needed %d)",
			summary.PassRate, summary.Threshold, summary.Passed, summary.Total, summary.RequiredPasses))
	}
	return nil
}

// LastSummary returns the summary of the most recent completed run, or
// nil if no run has completed yet.
func (s *Service) LastSummary() *types.Summary {
	return s.lastSummary.Load()
}

// Stop stops the sku-acceptor service.
func (s *Service) Stop(ctx context.Context) error {
	s.config.Log.Info().Msg("stopping sku-acceptor")

	if !s.running.Load() {
		s.config.Log.Debug().Msg("service already stopped, nothing to do")
		return nil
	}

	s.running.Store(false)
	close(s.done)

	s.config.Log.Info().Msg("sku-acceptor stopped successfully")
	return nil
}

// Stopped returns true if the sku-acceptor service is stopped.
func (s *Service) Stopped() bool {
	return !s.running.Load()
}

// WaitForShutdown blocks until all goroutines have terminated.
// This is useful in tests to ensure complete cleanup before moving to the next test.
func (s *Service) WaitForShutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.config.Log.Warn().Err(ctx.Err()).Msg("timed out waiting for goroutines to terminate")
		return ctx.Err()
	}
}
