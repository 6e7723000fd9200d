package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	config "github.com/xilidan/lingua/config/web"
	"github.com/xilidan/lingua/gateways/web"
	"github.com/xilidan/lingua/pkg/logger"
)

func main() {
	cfg := config.MustLoad()

	log := logger.Setup(cfg.Log.Level, cfg.Log.JSON)

	ctx := logger.WithContext(context.Background(), log)

	rootCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("failed to run()", slog.String("error", err.Error()))
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	srv, err := web.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer srv.Close()

	return srv.Start(ctx)
}
