package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"exportdocs/internal/app"
	compliancehandler "exportdocs/internal/compliance/handler"
	dochandler "exportdocs/internal/document/handler"
	"exportdocs/internal/platform/config"
	"exportdocs/internal/platform/httpserver"
	"exportdocs/internal/platform/logger"
	"exportdocs/internal/platform/metrics"
	shiphandler "exportdocs/internal/shipment/handler"
	httptransport "exportdocs/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	configPath := flag.String("config", "", "path to a config file (default ./config.yaml when present)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(log)
	if cfg.UsesDevSigningKey() {
		log.Warn("using the development JWT signing key; set EXPORTDOCS_AUTH_JWT_SIGNING_KEY")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("shutdown cleanup failed", "error", err)
		}
	}()

	checks := make(map[string]httptransport.HealthCheck, len(a.Checks))
	for name, check := range a.Checks {
		checks[name] = check
	}
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Metrics:   metrics.New(),
		Validator: a.Tokens,
		Checks:    checks,
		Routes: []httptransport.Registrar{
			shiphandler.New(a.Shipments, log),
			dochandler.New(a.Documents, log),
			compliancehandler.New(a.Matrix, cfg.Compliance.SuggestionThreshold, log),
		},
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting exportdocs", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	if a.Relay != nil {
		g.Go(func() error {
			log.Info("outbox relay started", "topic", cfg.Kafka.Topic)
			if err := a.Relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}
