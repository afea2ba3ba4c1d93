package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"efb/internal/app"
	"efb/internal/config"
	"efb/internal/logger"
	"efb/internal/routes"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, zl)
	router := routes.SetupRouter(a.Service, a.Registry, zl)

	g, gctx := errgroup.WithContext(ctx)
	a.StartBackground(gctx, g, true)
	a.RunServer(gctx, g, &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	})

	if err := g.Wait(); err != nil {
		zl.Fatal("api server failed", zap.Error(err))
	}
	zl.Info("api server stopped")
}
