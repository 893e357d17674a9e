package outbox

import (
	"context"
	"log/slog"
	"time"

	"exportdocs/pkg/platform/events"
)

// Source is the outbox side of the relay.
type Source interface {
	Drain(ctx context.Context, limit int, fn func(ctx context.Context, evs []events.Envelope) error) (int, error)
}

// Relay moves committed outbox entries to a publisher.
type Relay struct {
	source    Source
	publisher events.Publisher
	logger    *slog.Logger
	interval  time.Duration
	batch     int
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

func WithLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

// WithInterval sets the idle poll interval.
func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithBatchSize sets how many entries one drain handles.
func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batch = n
		}
	}
}

func NewRelay(source Source, publisher events.Publisher, opts ...RelayOption) *Relay {
	r := &Relay{
		source:    source,
		publisher: publisher,
		logger:    slog.Default(),
		interval:  time.Second,
		batch:     100,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DrainOnce publishes one batch and reports how many entries it handled.
func (r *Relay) DrainOnce(ctx context.Context) (int, error) {
	return r.source.Drain(ctx, r.batch, func(ctx context.Context, evs []events.Envelope) error {
		return r.publisher.Publish(ctx, evs...)
	})
}

// Run drains until ctx is cancelled. A full batch is followed immediately by
// another drain; otherwise the relay waits one interval. Publish failures are
// logged and retried on the next tick, leaving entries unpublished.
func (r *Relay) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		n, err := r.DrainOnce(ctx)
		if err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
		}
		if n > 0 {
			r.logger.DebugContext(ctx, "outbox entries relayed", "count", n)
		}

		wait := r.interval
		if err == nil && n == r.batch {
			wait = 0
		}
		timer.Reset(wait)
	}
}
