package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	config "github.com/xilidan/lingua/config/transcriber"
	"github.com/xilidan/lingua/pkg/logger"
	"github.com/xilidan/lingua/pkg/metrics"
	"github.com/xilidan/lingua/services/transcriber/model"
	"github.com/xilidan/lingua/services/transcriber/server"
	"github.com/xilidan/lingua/services/transcriber/usecase"
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
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	provider, err := model.New(ctx, &cfg.Model, log)
	if err != nil {
		log.Error("failed to create model provider", slog.String("error", err.Error()))
		return err
	}
	log.Info("model provider ready", slog.String("provider", provider.Name()))

	usc := usecase.New(provider, cfg.Model.CallTimeout, m, log)

	srv := server.NewServerOptions(usc, log)
	grpcServer, err := srv.NewServer()
	if err != nil {
		log.Error("failed to create grpc server", slog.String("error", err.Error()))
		return err
	}

	serverErrors := make(chan error, 2)

	address := fmt.Sprintf(":%d", cfg.Port)
	grpcListener, err := net.Listen("tcp", address)
	if err != nil {
		log.Error("failed to listen on grpc port", slog.String("error", err.Error()))
		return fmt.Errorf("failed to listen on grpc port: %w", err)
	}

	go func() {
		serverErrors <- grpcServer.Serve(grpcListener)
	}()
	log.Info("transcriber grpc service started", slog.String("address", address))

	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrors <- fmt.Errorf("metrics server: %w", err)
			}
		}()
		log.Info("metrics endpoint started", slog.String("address", metricsServer.Addr))
	}

	select {
	case err := <-serverErrors:
		log.Info("server has closed")
		grpcServer.Stop()
		return fmt.Errorf("server has closed: %w", err)
	case <-ctx.Done():
		log.Info("closing grpc server due to context cancellation")
	}

	grpcServer.GracefulStop()
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("failed to stop metrics endpoint", slog.String("error", err.Error()))
		}
	}

	log.Info("transcriber stopped")
	return nil
}
