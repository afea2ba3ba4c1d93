package tasks

import (
	"context"
	stderrors "errors"
	"time"

	e "efb/internal/errors"
	"efb/internal/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/mileusna/crontab"
	"go.uber.org/zap"
)

// MaxAttempts bounds one scheduled refresh, first try included.
const MaxAttempts = 3

// Refreshable is implemented by *cache.Cache.
type Refreshable interface {
	Get(ctx context.Context, forceRefresh bool) (*models.Snapshot, error)
}

// Refresher forces a cache refresh on a cron schedule, retrying transient
// portal failures with exponential backoff.
type Refresher struct {
	store   Refreshable
	logger  *zap.Logger
	backOff func() backoff.BackOff
}

type Option func(*Refresher)

// WithBackOff replaces the retry policy; attempts are still capped at MaxAttempts.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(r *Refresher) { r.backOff = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Refresher) { r.logger = l.Named("refresher") }
}

func NewRefresher(store Refreshable, opts ...Option) *Refresher {
	r := &Refresher{
		store:  store,
		logger: zap.NewNop(),
		backOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 2 * time.Second
			b.MaxElapsedTime = 2 * time.Minute
			return b
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh runs one forced refresh. Layout drift (missing link, untrusted path,
// unreadable workbook) is not retried.
func (r *Refresher) Refresh(ctx context.Context) error {
	attempt := 0
	op := func() error {
		attempt++
		s, err := r.store.Get(ctx, true)
		if err == nil {
			r.logger.Info("scheduled refresh done",
				zap.Int("attempt", attempt),
				zap.String("data_date", s.DataDate),
			)
			return nil
		}

		r.logger.Warn("scheduled refresh failed",
			zap.Int("attempt", attempt),
			zap.String("kind", e.Label(err)),
			zap.Error(err),
		)
		if !Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(r.backOff(), MaxAttempts-1), ctx)
	return backoff.Retry(op, b)
}

// Retryable reports whether another attempt could plausibly succeed.
func Retryable(err error) bool {
	switch {
	case stderrors.Is(err, e.ErrLinkNotFound),
		stderrors.Is(err, e.ErrUntrustedDownloadPath),
		stderrors.Is(err, e.ErrUnparseableDocument),
		stderrors.Is(err, e.ErrInvalidArgument),
		stderrors.Is(err, context.Canceled):
		return false
	default:
		return true
	}
}

// Run schedules Refresh on the cron schedule and blocks until ctx is done. With warm set
// the cache is filled once before the first tick.
func (r *Refresher) Run(ctx context.Context, schedule string, warm bool) error {
	ctab := crontab.New()
	defer ctab.Shutdown()

	if err := ctab.AddJob(schedule, func() {
		if err := r.Refresh(ctx); err != nil {
			r.logger.Error("scheduled refresh gave up", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	r.logger.Info("refresh scheduled", zap.String("cron", schedule))

	if warm {
		if err := r.Refresh(ctx); err != nil {
			r.logger.Error("warm-up refresh failed", zap.Error(err))
		}
	}

	<-ctx.Done()
	return nil
}
