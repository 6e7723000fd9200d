package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	config "github.com/xilidan/lingua/config/web"
	"github.com/xilidan/lingua/gateways/web/export"
	"github.com/xilidan/lingua/gateways/web/storage"
	"github.com/xilidan/lingua/gateways/web/workflow"
	"github.com/xilidan/lingua/pkg/json"
	"github.com/xilidan/lingua/pkg/logger"
	"github.com/xilidan/lingua/pkg/metrics"
	"github.com/xilidan/lingua/services/transcriber/entity"
)

// HealthChecker reports whether the transcriber service answers.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

type Handler struct {
	cfg      *config.Config
	manager  *workflow.Manager
	exporter *export.Exporter
	history  storage.Storage
	health   HealthChecker
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	log      *slog.Logger
}

type Options struct {
	Config   *config.Config
	Manager  *workflow.Manager
	Exporter *export.Exporter
	History  storage.Storage
	Health   HealthChecker
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Log      *slog.Logger
}

func New(opts Options) *Handler {
	return &Handler{
		cfg:      opts.Config,
		manager:  opts.Manager,
		exporter: opts.Exporter,
		history:  opts.History,
		health:   opts.Health,
		metrics:  opts.Metrics,
		gatherer: opts.Gatherer,
		log:      opts.Log,
	}
}

// Router mounts every route of the web gateway.
func (h *Handler) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(h.requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(h.metrics.APIMiddleware)

	router.Get("/health", h.HealthHandler)
	if h.gatherer != nil {
		router.Method(http.MethodGet, "/metrics", metrics.Handler(h.gatherer))
	}

	router.Route("/api/v1", func(apiRouter chi.Router) {
		apiRouter.Get("/languages", h.LanguagesHandler)
		apiRouter.Post("/sessions", h.CreateSessionHandler)

		apiRouter.Route("/sessions/{id}", func(sessionRouter chi.Router) {
			sessionRouter.Use(h.authorizeSession)
			sessionRouter.Get("/", h.GetSessionHandler)
			sessionRouter.Delete("/", h.DeleteSessionHandler)
			sessionRouter.Post("/generate", h.GenerateHandler)
			sessionRouter.Get("/export", h.ExportHandler)
		})

		apiRouter.Route("/history", func(historyRouter chi.Router) {
			historyRouter.Use(h.authorizeSubject)
			historyRouter.Get("/", h.ListHistoryHandler)
			historyRouter.Get("/{id}", h.GetHistoryHandler)
		})
	})

	return router
}

// requestLogger puts a request scoped logger into the context.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := h.log.With(
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), log)))

		log.Debug("request served",
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)))
	})
}

type healthResponse struct {
	Status      string `json:"status"`
	Transcriber string `json:"transcriber"`
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.health != nil && !h.health.Healthy(ctx) {
		json.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Transcriber: "unavailable"})
		return
	}
	json.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Transcriber: "serving"})
}

func (h *Handler) LanguagesHandler(w http.ResponseWriter, r *http.Request) {
	json.WriteJSON(w, http.StatusOK, map[string][]entity.Language{"languages": entity.Languages()})
}
