// Package service exposes the operational HTTP surface: a health probe,
// Prometheus metrics, and the latest report artifact set.
package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Config contains service configuration.
type Config struct {
	// Addr is the listen address, e.g. ":7300". Empty disables the service.
	Addr string
	// ReportDir, when set, is served at /report/ so the freshest artifact
	// set is browsable without copying it anywhere.
	ReportDir string
	Log       zerolog.Logger
}

// Service is the operational HTTP server. It is optional: the run
// pipeline works identically with or without it.
type Service struct {
	cfg    Config
	server *http.Server
}

func New(cfg Config) *Service {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
	if cfg.ReportDir != "" {
		mux.Handle("/report/", http.StripPrefix("/report/", http.FileServer(http.Dir(cfg.ReportDir))))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})

	return &Service{
		cfg: cfg,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           c.Handler(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Service) Start() error {
	s.cfg.Log.Info().Str("addr", s.cfg.Addr).Msg("service starting")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Service) Shutdown(ctx context.Context) error {
	s.cfg.Log.Info().Msg("service shutting down")
	return s.server.Shutdown(ctx)
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK")) //nolint:errcheck
}
