// Package app assembles the services from configuration. The HTTP server and
// the operator CLI share it so both run against the same stores and policy.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	"exportdocs/internal/compliance"
	docmetrics "exportdocs/internal/document/metrics"
	docservice "exportdocs/internal/document/service"
	docstore "exportdocs/internal/document/store/document"
	"exportdocs/internal/platform/auth"
	"exportdocs/internal/platform/config"
	"exportdocs/internal/platform/kafka"
	"exportdocs/internal/platform/postgres"
	platformredis "exportdocs/internal/platform/redis"
	shipmetrics "exportdocs/internal/shipment/metrics"
	shipservice "exportdocs/internal/shipment/service"
	shipstore "exportdocs/internal/shipment/store/shipment"
	"exportdocs/internal/shipment/store/statuscache"
	"exportdocs/internal/validation"
	valmetrics "exportdocs/internal/validation/metrics"
	"exportdocs/pkg/platform/events"
	eventskafka "exportdocs/pkg/platform/events/kafka"
	"exportdocs/pkg/platform/events/outbox"
	"exportdocs/pkg/platform/tx"
)

// App is the assembled object graph.
type App struct {
	Config    *config.Config
	Matrix    *compliance.Matrix
	Validator *validation.Validator
	Shipments *shipservice.Service
	Documents *docservice.Service
	Tokens    *auth.TokenService
	// Relay is set when events go through the postgres outbox to Kafka.
	Relay *outbox.Relay
	// Checks are dependency health probes by name.
	Checks map[string]func(ctx context.Context) error

	closers []func() error
}

type stores struct {
	shipments shipservice.ShipmentStore
	documents docservice.DocumentStore
	lister    shipservice.DocumentLister
	docShips  docservice.ShipmentStore
}

// Build connects every configured backend. Without a database URL the stores
// are in memory; without Redis the status cache is skipped; without Kafka
// brokers events stay in the outbox (postgres) or are dropped (memory).
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (_ *App, err error) {
	a := &App{
		Config: cfg,
		Tokens: auth.NewTokenService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer),
		Checks: make(map[string]func(ctx context.Context) error),
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.Matrix = compliance.Default()
	if cfg.Compliance.MatrixPath != "" {
		if a.Matrix, err = compliance.LoadFile(cfg.Compliance.MatrixPath); err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "compliance matrix loaded", "path", cfg.Compliance.MatrixPath, "prefixes", len(a.Matrix.Prefixes()))
	}
	a.Validator = validation.New(a.Matrix,
		validation.WithConfig(validation.Config{
			WeightTolerance:     cfg.Compliance.WeightTolerance,
			SuggestionThreshold: cfg.Compliance.SuggestionThreshold,
		}),
		validation.WithMetrics(valmetrics.NewWithRegisterer(reg)),
	)

	var (
		st        stores
		runner    tx.Runner
		publisher events.Publisher = events.Nop{}
		db        *sql.DB
	)
	if cfg.Database.URL != "" {
		if db, err = postgres.Open(ctx, cfg.Database); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err = postgres.Migrate(ctx, db); err != nil {
			return nil, err
		}
		ships, docs := shipstore.NewPostgres(db), docstore.NewPostgres(db)
		st = stores{shipments: ships, documents: docs, lister: docs, docShips: ships}
		runner = tx.NewSQLRunner(db)
		publisher = outbox.New(db)
		a.Checks["postgres"] = db.PingContext
	} else {
		ships, docs := shipstore.NewInMemory(), docstore.NewInMemory()
		st = stores{shipments: ships, documents: docs, lister: docs, docShips: ships}
		runner = tx.NewLocalRunner()
		logger.WarnContext(ctx, "no database configured; using in-memory stores")
	}

	client, err := kafka.New(ctx, cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if client != nil {
		a.closers = append(a.closers, func() error { client.Close(); return nil })
		if err = kafka.EnsureTopic(ctx, client, cfg.Kafka.Topic, cfg.Kafka.Partitions); err != nil {
			return nil, err
		}
		a.Checks["kafka"] = func(ctx context.Context) error { return client.Ping(ctx) }
		a.wireKafka(client, db, logger, &publisher)
	}

	shipOpts := []shipservice.Option{
		shipservice.WithLogger(logger),
		shipservice.WithMetrics(shipmetrics.NewWithRegisterer(reg)),
		shipservice.WithPublisher(publisher),
		shipservice.WithTxRunner(runner),
		shipservice.WithWorkers(cfg.Compliance.RecomputeWorkers),
	}
	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		a.closers = append(a.closers, rc.Close)
		a.Checks["redis"] = rc.Health
		cache := statuscache.NewRedis(rc.Client,
			statuscache.WithTTL(cfg.Redis.StatusTTL),
			statuscache.WithLogger(logger),
		)
		a.Checks["status_cache"] = func(context.Context) error {
			if !cache.Healthy() {
				return errors.New("status cache circuit open")
			}
			return nil
		}
		shipOpts = append(shipOpts, shipservice.WithStatusCache(cache))
	}
	a.Shipments = shipservice.New(st.shipments, st.lister, a.Validator, shipOpts...)

	a.Documents = docservice.New(st.documents, st.docShips, a.Validator,
		docservice.WithLogger(logger),
		docservice.WithMetrics(docmetrics.NewWithRegisterer(reg)),
		docservice.WithPublisher(publisher),
		docservice.WithTxRunner(runner),
		docservice.WithRecomputer(a.Shipments),
		docservice.WithConfig(docservice.Config{
			AutoFail:            cfg.Compliance.AutoFail,
			SuggestionThreshold: cfg.Compliance.SuggestionThreshold,
		}),
	)
	return a, nil
}

// wireKafka relays the outbox when a database holds it, otherwise publishes
// directly.
func (a *App) wireKafka(client *kgo.Client, db *sql.DB, logger *slog.Logger, publisher *events.Publisher) {
	kp := eventskafka.NewPublisher(client, a.Config.Kafka.Topic)
	if db == nil {
		*publisher = kp
		return
	}
	a.Relay = outbox.NewRelay(outbox.New(db), kp,
		outbox.WithLogger(logger),
		outbox.WithInterval(a.Config.Kafka.RelayInterval),
		outbox.WithBatchSize(a.Config.Kafka.RelayBatch),
	)
}

// Close releases every backend connection in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close app: %w", err)
	}
	return nil
}
