package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	config "github.com/xilidan/lingua/config/web"
	transcriberClient "github.com/xilidan/lingua/gateways/web/clients/transcriber"
	"github.com/xilidan/lingua/gateways/web/export"
	"github.com/xilidan/lingua/gateways/web/handler"
	"github.com/xilidan/lingua/gateways/web/storage"
	"github.com/xilidan/lingua/gateways/web/workflow"
	"github.com/xilidan/lingua/pkg/gen"
	"github.com/xilidan/lingua/pkg/metrics"
	"github.com/xilidan/lingua/services/transcriber/entity"
)

const (
	sessionMaxAge  = 2 * time.Hour
	pruneInterval  = 10 * time.Minute
	shutdownPeriod = 10 * time.Second
)

type Server struct {
	cfg         *config.Config
	log         *slog.Logger
	transcriber *transcriberClient.Client
	history     storage.Storage
	manager     *workflow.Manager
	handler     *handler.Handler
}

// New wires the web gateway. Pipelines started by its sessions are bound to ctx.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Server, error) {
	log.Info("creating new web server")
	log.Debug("server config",
		slog.Int("port", cfg.Port),
		slog.String("transcriber_url", cfg.TranscriberService.Url),
		slog.Int("transcriber_port", cfg.TranscriberService.Port),
		slog.Bool("database_enabled", cfg.Database.Enabled()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	transcriber, err := transcriberClient.New(&cfg.TranscriberService)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcriber client: %w", err)
	}
	log.Info("transcriber client created")

	history, err := newHistory(ctx, cfg, log)
	if err != nil {
		transcriber.Close()
		return nil, err
	}

	faces, err := export.LoadFaces(cfg.Fonts.TamilRegular, cfg.Fonts.TamilBold)
	if err != nil {
		transcriber.Close()
		history.Close()
		return nil, fmt.Errorf("failed to load export fonts: %w", err)
	}
	if !export.Supports(faces, entity.ScriptTamil) {
		log.Warn("no Tamil font found, PDF export of Tamil script will fail",
			slog.String("hint", "set TAMIL_FONT_PATH or run go generate ./gateways/web/export"))
	}

	manager := workflow.NewManager(ctx, transcriber, gen.UUID(), m, log)
	manager.OnDone(storage.Archive(history, log))

	h := handler.New(handler.Options{
		Config:   cfg,
		Manager:  manager,
		Exporter: export.New(faces, log),
		History:  history,
		Health:   transcriber,
		Metrics:  m,
		Gatherer: reg,
		Log:      log,
	})

	log.Info("web server instance created successfully")
	return &Server{
		cfg:         cfg,
		log:         log,
		transcriber: transcriber,
		history:     history,
		manager:     manager,
		handler:     h,
	}, nil
}

func newHistory(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Storage, error) {
	if !cfg.Database.Enabled() {
		log.Info("history kept in memory")
		return storage.NewMemory(gen.UUID()), nil
	}

	history, err := storage.NewPostgres(ctx, cfg.Database.DSN(), cfg.Database.MaxOpenConns, gen.UUID())
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	log.Info("history stored in postgres", slog.String("host", cfg.Database.Host))
	return history, nil
}

// Start serves HTTP until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.log.Info("web gateway started", slog.String("address", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			s.log.Error("server error received", slog.String("error", err.Error()))
			return fmt.Errorf("server error: %w", err)
		case <-ticker.C:
			if n := s.manager.Prune(sessionMaxAge); n > 0 {
				s.log.Info("pruned idle sessions", slog.Int("count", n), slog.Int("remaining", s.manager.Len()))
			}
		case <-ctx.Done():
			s.log.Info("closing server due to context cancellation")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.log.Error("graceful shutdown failed", slog.String("error", err.Error()))
				srv.Close()
				return fmt.Errorf("failed to gracefully shutdown server: %w", err)
			}
			s.log.Info("server shutdown completed successfully")
			return nil
		}
	}
}

func (s *Server) Close() error {
	return errors.Join(s.transcriber.Close(), s.history.Close())
}
