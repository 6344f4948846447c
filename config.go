package skuqa

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/skuqa/sku-acceptor/flags"
)

// Config holds the application configuration
type Config struct {
	CatalogPath      string        // CSV catalog of test cases
	SuiteConfigPath  string        // Optional YAML mapping catalog columns
	DriverCommand    string        // Search driver binary, one invocation per test
	DriverArgs       []string      // Arguments for the search driver
	OutputDir        string        // Directory receiving the report artifact set
	Threshold        float64       // Minimum pass rate in percent for a passing suite
	Concurrency      int           // Number of concurrent test workers (0 = default)
	RunInterval      time.Duration // Interval between runs
	RunOnce          bool          // Indicates if the service should exit after one run
	HTTPAddr         string        // Listen address for healthz/metrics/report, empty disables
	ProgressInterval time.Duration // Interval between progress log lines
	Log              zerolog.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log zerolog.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	catalogPath := ctx.String(flags.Catalog.Name)
	if catalogPath == "" {
		return nil, errors.New("catalog path is required")
	}
	absCatalog, err := filepath.Abs(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for catalog '%s': %w", catalogPath, err)
	}

	suiteConfig := ctx.String(flags.SuiteConfig.Name)
	if suiteConfig != "" {
		suiteConfig, err = filepath.Abs(suiteConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for suite config '%s': %w", suiteConfig, err)
		}
	}

	outputDir, err := filepath.Abs(ctx.String(flags.OutputDir.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for output directory: %w", err)
	}

	threshold := ctx.Float64(flags.Threshold.Name)
	if threshold < 0 || threshold > 100 {
		return nil, fmt.Errorf("threshold must be between 0 and 100, got %v", threshold)
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)

	return &Config{
		CatalogPath:      absCatalog,
		SuiteConfigPath:  suiteConfig,
		DriverCommand:    ctx.String(flags.Driver.Name),
		DriverArgs:       ctx.StringSlice(flags.DriverArg.Name),
		OutputDir:        outputDir,
		Threshold:        threshold,
		Concurrency:      ctx.Int(flags.Concurrency.Name),
		RunInterval:      runInterval,
		RunOnce:          runInterval == 0,
		HTTPAddr:         ctx.String(flags.HTTPAddr.Name),
		ProgressInterval: ctx.Duration(flags.ProgressInterval.Name),
		Log:              log,
	}, nil
}
