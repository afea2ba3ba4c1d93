// Package app assembles the components both binaries share.
package app

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"efb/internal/cache"
	"efb/internal/config"
	"efb/internal/efinance"
	"efb/internal/metrics"
	"efb/internal/pkg/excel"
	"efb/internal/pkg/fine"
	"efb/internal/tasks"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Cache    *cache.Cache
	Service  *efinance.Service
}

type Option func(*options)

type options struct {
	clientOpts []fine.Option
}

// WithClientOptions passes extra options to the portal client, e.g. a test transport.
func WithClientOptions(opts ...fine.Option) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, opts...) }
}

func New(cfg *config.Config, logger *zap.Logger, opts ...Option) *App {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	clientOpts := append([]fine.Option{
		fine.WithRateLimiter(ratelimit.New(cfg.PortalRatePerSecond)),
		fine.WithLogger(logger),
	}, o.clientOpts...)
	client := fine.New(fine.PageURL(cfg.PageNttID), clientOpts...)

	store := cache.New(
		efinance.NewPortalSource(client, excel.NewParser(logger), logger),
		cache.WithLogger(logger),
		cache.WithMetrics(m),
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Metrics:  m,
		Cache:    store,
		Service:  efinance.NewService(store),
	}
}

// StartBackground adds the optional refresher and metrics listener to g.
// warm fills the cache once at startup when a schedule is set.
func (a *App) StartBackground(ctx context.Context, g *errgroup.Group, warm bool) {
	if a.Config.RefreshCron != "" {
		refresher := tasks.NewRefresher(a.Cache, tasks.WithLogger(a.Logger))
		g.Go(func() error {
			return refresher.Run(ctx, a.Config.RefreshCron, warm)
		})
	}

	if a.Config.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
		a.serve(ctx, g, "metrics", &http.Server{Addr: a.Config.MetricsAddr, Handler: mux})
	}
}

// serve runs srv in g and shuts it down when ctx ends.
func (a *App) serve(ctx context.Context, g *errgroup.Group, name string, srv *http.Server) {
	g.Go(func() error {
		a.Logger.Info("listening", zap.String("server", name), zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// RunServer runs the API server in g until ctx ends.
func (a *App) RunServer(ctx context.Context, g *errgroup.Group, srv *http.Server) {
	a.serve(ctx, g, "api", srv)
}
