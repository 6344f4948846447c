package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	skuqa "github.com/skuqa/sku-acceptor"
	"github.com/skuqa/sku-acceptor/exitcodes"
	"github.com/skuqa/sku-acceptor/flags"
	"github.com/skuqa/sku-acceptor/metrics"
	"github.com/skuqa/sku-acceptor/service"
)

var (
	Version   = "v0.3.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "sku-acceptor"
	app.Usage = "SKU search acceptance testing service"
	app.Description = "sku-acceptor verifies that catalog entries are findable in the storefront search"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if skuqa.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else if skuqa.IsTestFailureError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			} else {
				// For other unspecified errors, default to exit code 1
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			}
		}
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "application failed: %v\n", err)
		os.Exit(exitcodes.RuntimeErr)
	}
}

func run(cliCtx *cli.Context) error {
	log := newLogger(cliCtx)

	cfg, err := skuqa.NewConfig(cliCtx, log)
	if err != nil {
		return skuqa.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(cliCtx.App.Name),
		otelconfig.WithServiceVersion(cliCtx.App.Version),
	)
	if err != nil {
		return skuqa.NewRuntimeError(fmt.Errorf("failed to set up telemetry: %w", err))
	}
	defer otelShutdown()

	ctx, stop := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	svc, err := skuqa.New(ctx, cfg, Version, cancel)
	if err != nil {
		return skuqa.NewRuntimeError(fmt.Errorf("failed to create service: %w", err))
	}

	var httpSrv *service.Service
	if cfg.HTTPAddr != "" {
		httpSrv = service.New(service.Config{
			Addr:      cfg.HTTPAddr,
			ReportDir: cfg.OutputDir,
			Log:       log,
		})
		go func() {
			if err := httpSrv.Start(); err != nil {
				log.Error().Err(err).Msg("http service failed")
				metrics.RecordErrorDetails("http service failed", err)
			}
		}()
	}

	err = svc.Start(ctx)

	if !cfg.RunOnce && err == nil {
		<-ctx.Done()
		if stopErr := svc.Stop(context.Background()); stopErr != nil {
			log.Error().Err(stopErr).Msg("error stopping service")
		}
	}

	if httpSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := httpSrv.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("error shutting down http service")
		}
	}

	return err
}

func newLogger(cliCtx *cli.Context) zerolog.Logger {
	level := zerolog.InfoLevel
	if cliCtx.Bool(flags.Verbose.Name) {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
