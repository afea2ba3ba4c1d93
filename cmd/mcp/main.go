package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"efb/internal/app"
	"efb/internal/config"
	"efb/internal/logger"
	"efb/internal/mcp"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 중요: 로그는 반드시 Stderr로 출력해야 합니다. (Stdout은 통신용)
	log.SetOutput(os.Stderr)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, zl)
	g, gctx := errgroup.WithContext(ctx)

	// the cache fills lazily on the first tool call; a scheduled refresh does
	// not need to block the handshake
	a.StartBackground(gctx, g, false)

	server := mcp.NewServer(a.Service, os.Stdin, os.Stdout, zl)
	g.Go(func() error {
		defer stop()
		zl.Info("전자금융업 등록/말소 현황 MCP 서버 시작됨", zap.String("page_ntt_id", cfg.PageNttID))
		return server.Serve(gctx)
	})

	if err := g.Wait(); err != nil {
		zl.Fatal("mcp server failed", zap.Error(err))
	}
	zl.Info("mcp server stopped")
}
