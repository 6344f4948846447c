package flags

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/skuqa/sku-acceptor/runner"
)

const EnvVarPrefix = "SKU_ACCEPTOR"

// prefixEnvVar derives the single env var backing a flag, e.g.
// "output-dir" -> SKU_ACCEPTOR_OUTPUT_DIR.
func prefixEnvVar(name string) []string {
	envVar := strings.ReplaceAll(strings.ToUpper(name), "-", "_")
	return []string{EnvVarPrefix + "_" + envVar}
}

var (
	Catalog = &cli.StringFlag{
		Name:     "catalog",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVar("catalog"),
		Usage:    "Path to the test catalog CSV (eg. 'catalog.csv')",
	}
	SuiteConfig = &cli.StringFlag{
		Name:    "suite-config",
		Value:   "",
		EnvVars: prefixEnvVar("suite-config"),
		Usage:   "Path to suite config file mapping catalog columns (eg. 'suite.yaml')",
	}
	Driver = &cli.StringFlag{
		Name:     "driver",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVar("driver"),
		Usage:    "Search driver binary invoked per test; receives the spec as JSON on stdin",
	}
	DriverArg = &cli.StringSliceFlag{
		Name:    "driver-arg",
		EnvVars: prefixEnvVar("driver-arg"),
		Usage:   "Argument passed to the search driver; repeatable",
	}
	OutputDir = &cli.StringFlag{
		Name:    "output-dir",
		Value:   "results",
		EnvVars: prefixEnvVar("output-dir"),
		Usage:   "Directory receiving the report artifact set",
	}
	Threshold = &cli.Float64Flag{
		Name:    "threshold",
		Value:   90,
		EnvVars: prefixEnvVar("threshold"),
		Usage:   "Minimum pass rate in percent for the suite to pass; the boundary itself passes",
	}
	Concurrency = &cli.IntFlag{
		Name:    "concurrency",
		Value:   runner.DefaultConcurrency,
		EnvVars: prefixEnvVar("concurrency"),
		Usage:   "Number of parallel test workers",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVar("run-interval"),
		Usage:   "Interval between runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	HTTPAddr = &cli.StringFlag{
		Name:    "http-addr",
		Value:   "",
		EnvVars: prefixEnvVar("http-addr"),
		Usage:   "Listen address for healthz/metrics/report (eg. ':7300'). Empty disables the server.",
	}
	ProgressInterval = &cli.DurationFlag{
		Name:    "progress-interval",
		Value:   0,
		EnvVars: prefixEnvVar("progress-interval"),
		Usage:   "Interval between progress log lines during a run",
	}
	Verbose = &cli.BoolFlag{
		Name:    "verbose",
		Value:   false,
		EnvVars: prefixEnvVar("verbose"),
		Usage:   "Enable debug logging",
	}
)

var requiredFlags = []cli.Flag{
	Catalog,
	Driver,
}

var optionalFlags = []cli.Flag{
	SuiteConfig,
	DriverArg,
	OutputDir,
	Threshold,
	Concurrency,
	RunInterval,
	HTTPAddr,
	ProgressInterval,
	Verbose,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
