// Package statuscache keeps recently computed shipment compliance summaries
// in Redis. The cache is optional: any Redis failure degrades to a miss, and
// while the circuit breaker is open cached values are not trusted because
// invalidations may have been lost.
package statuscache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"exportdocs/internal/shipment/models"
	id "exportdocs/pkg/domain"
	"exportdocs/pkg/platform/circuit"
)

const keyPrefix = "exportdocs:shipment-status:"

// ErrMiss is returned by a KV when the key does not exist.
var ErrMiss = errors.New("cache miss")

// KV is the subset of Redis the cache uses.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Cache stores aggregated summaries per organization and shipment.
type Cache struct {
	kv      KV
	ttl     time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Cache) {
		if b != nil {
			c.breaker = b
		}
	}
}

func New(kv KV, opts ...Option) *Cache {
	c := &Cache{
		kv:      kv,
		ttl:     5 * time.Minute,
		breaker: circuit.New("shipment-status-cache"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewRedis builds a cache on a go-redis client.
func NewRedis(client redis.Cmdable, opts ...Option) *Cache {
	return New(redisKV{client: client}, opts...)
}

func key(orgID id.OrganizationID, shipmentID id.ShipmentID) string {
	return keyPrefix + orgID.String() + ":" + shipmentID.String()
}

// Get returns a cached summary. Errors and an open breaker report a miss.
func (c *Cache) Get(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) (models.Summary, bool) {
	raw, err := c.kv.Get(ctx, key(orgID, shipmentID))
	if errors.Is(err, ErrMiss) {
		c.recordSuccess(ctx)
		return models.Summary{}, false
	}
	if err != nil {
		c.recordFailure(ctx, "get", err)
		return models.Summary{}, false
	}
	if !c.recordSuccess(ctx) {
		return models.Summary{}, false
	}
	var summary models.Summary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		c.logger.WarnContext(ctx, "discarding undecodable cached status",
			"shipment_id", shipmentID.String(),
			"error", err,
		)
		return models.Summary{}, false
	}
	return summary, true
}

// Put stores a summary. Failures are logged and otherwise ignored.
func (c *Cache) Put(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID, summary models.Summary) {
	raw, err := json.Marshal(summary)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to encode status for cache", "error", err)
		return
	}
	if err := c.kv.Set(ctx, key(orgID, shipmentID), string(raw), c.ttl); err != nil {
		c.recordFailure(ctx, "set", err)
		return
	}
	c.recordSuccess(ctx)
}

// Invalidate drops the cached summary of a shipment.
func (c *Cache) Invalidate(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) {
	if err := c.kv.Del(ctx, key(orgID, shipmentID)); err != nil {
		c.recordFailure(ctx, "invalidate", err)
		return
	}
	c.recordSuccess(ctx)
}

// Healthy reports whether the breaker is closed.
func (c *Cache) Healthy() bool {
	return !c.breaker.IsOpen()
}

func (c *Cache) recordFailure(ctx context.Context, op string, err error) {
	_, change := c.breaker.RecordFailure()
	if change.Opened {
		c.logger.WarnContext(ctx, "status cache circuit opened",
			"breaker", c.breaker.Name(),
			"op", op,
			"error", err,
		)
		return
	}
	c.logger.DebugContext(ctx, "status cache call failed", "op", op, "error", err)
}

func (c *Cache) recordSuccess(ctx context.Context) bool {
	usePrimary, change := c.breaker.RecordSuccess()
	if change.Closed {
		c.logger.InfoContext(ctx, "status cache circuit closed", "breaker", c.breaker.Name())
	}
	return usePrimary
}

type redisKV struct {
	client redis.Cmdable
}

func (r redisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return v, err
}

func (r redisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r redisKV) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}
