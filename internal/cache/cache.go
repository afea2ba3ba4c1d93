// Package cache holds the most recent snapshot in memory and decides when it
// must be rebuilt.
package cache

import (
	"context"
	"sync"
	"time"

	e "efb/internal/errors"
	"efb/internal/metrics"
	"efb/internal/models"

	"go.uber.org/zap"
)

const DefaultTTL = 6 * time.Hour

// Source produces a fresh snapshot, typically by running the whole portal pipeline.
type Source interface {
	Fetch(ctx context.Context) (*models.Snapshot, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(ctx context.Context) (*models.Snapshot, error)

func (f SourceFunc) Fetch(ctx context.Context) (*models.Snapshot, error) {
	return f(ctx)
}

type Cache struct {
	src     Source
	ttl     time.Duration
	clock   func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu   sync.RWMutex
	slot *models.Snapshot
}

type Option func(*Cache)

func WithTTL(d time.Duration) Option {
	return func(c *Cache) { c.ttl = d }
}

func WithClock(clock func() time.Time) Option {
	return func(c *Cache) { c.clock = clock }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = l.Named("cache") }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

func New(src Source, opts ...Option) *Cache {
	c := &Cache{
		src:    src,
		ttl:    DefaultTTL,
		clock:  time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached snapshot, refreshing it first when it is missing,
// expired or forceRefresh is set.
func (c *Cache) Get(ctx context.Context, forceRefresh bool) (*models.Snapshot, error) {
	return c.GetAt(ctx, forceRefresh, c.clock())
}

// GetAt is Get with an explicit notion of now. A refreshed snapshot is stored
// as a copy whose FetchedAt is now.
//
// Concurrent callers that all miss run the source independently; whichever
// finishes last is kept. A failed refresh returns the error and leaves the
// previous snapshot in place.
func (c *Cache) GetAt(ctx context.Context, forceRefresh bool, now time.Time) (*models.Snapshot, error) {
	current := c.Peek()

	if !forceRefresh && c.fresh(current, now) {
		c.observeLookup("hit")
		return current, nil
	}

	switch {
	case forceRefresh:
		c.observeLookup("forced")
	case current == nil:
		c.observeLookup("miss")
	default:
		c.observeLookup("expired")
	}

	start := time.Now()
	snapshot, err := c.src.Fetch(ctx)
	elapsed := time.Since(start)

	if c.metrics != nil {
		c.metrics.ObserveRefresh(elapsed, e.Label(err), err)
	}

	if err != nil {
		c.logger.Error("refresh failed",
			zap.Bool("force", forceRefresh),
			zap.Bool("has_previous", current != nil),
			zap.String("kind", e.Label(err)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
			zap.NamedError("cause", e.Cause(err)),
		)
		return nil, err
	}

	// staleness is measured on the cache clock, so the held copy carries its time
	stamped := *snapshot
	stamped.FetchedAt = now
	snapshot = &stamped

	c.mu.Lock()
	c.slot = snapshot
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.ObserveSnapshot(snapshot)
	}
	c.logger.Info("snapshot refreshed",
		zap.Int("registered", len(snapshot.Registered)),
		zap.Int("cancelled", len(snapshot.Cancelled)),
		zap.String("data_date", snapshot.DataDate),
		zap.Duration("elapsed", elapsed),
	)

	return snapshot, nil
}

// Peek returns the held snapshot without refreshing; nil before the first
// successful fetch.
func (c *Cache) Peek() *models.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.slot
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) fresh(s *models.Snapshot, now time.Time) bool {
	return s != nil && now.Sub(s.FetchedAt) < c.ttl
}

func (c *Cache) observeLookup(result string) {
	if c.metrics != nil {
		c.metrics.ObserveLookup(result)
	}
}
