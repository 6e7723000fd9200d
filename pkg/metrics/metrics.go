package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lingua"

// Metrics is safe to use as a nil pointer; every observation becomes a no-op.
type Metrics struct {
	apiCalls   *prometheus.HistogramVec
	modelCalls *prometheus.HistogramVec
	pipelines  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		apiCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_call_seconds",
			Help:      "HTTP API call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		modelCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_seconds",
			Help:      "Remote model call latency by operation and outcome.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 45, 90},
		}, []string{"operation", "outcome"}),
		pipelines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipelines_total",
			Help:      "Finished generation pipelines by final state.",
		}, []string{"state"}),
	}

	reg.MustRegister(m.apiCalls, m.modelCalls, m.pipelines)
	return m
}

func (m *Metrics) ObserveModelCall(operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.modelCalls.WithLabelValues(operation, outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) ObservePipeline(state string) {
	if m == nil {
		return
	}
	m.pipelines.WithLabelValues(state).Inc()
}

// APIMiddleware records request latency labelled with the chi route pattern,
// so ids in the path do not explode cardinality.
func (m *Metrics) APIMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		m.apiCalls.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Observe(time.Since(start).Seconds())
	})
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
