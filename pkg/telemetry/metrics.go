package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics provides Prometheus metrics for docnav. A disabled Metrics is a
// no-op recorder.
type Metrics struct {
	config MetricsConfig

	// Resolution metrics
	loadsTotal   *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	configErrors *prometheus.CounterVec

	// Content metrics
	documentsIndexed prometheus.Gauge
	indexRuns        *prometheus.CounterVec

	// Lint metrics
	policyViolations *prometheus.CounterVec

	// Watch metrics
	reloads *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.LoadBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		loadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_loads_total",
				Help:      "Total number of site configuration loads",
			},
			[]string{"result"},
		),
		loadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "config_load_duration_seconds",
				Help:      "Duration of site configuration loads",
				Buckets:   buckets,
			},
			[]string{"result"},
		),
		configErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_errors_total",
				Help:      "Total number of rejected configurations by error kind",
			},
			[]string{"kind"},
		),

		documentsIndexed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "documents_indexed",
				Help:      "Number of documents in the latest index run",
			},
		),
		indexRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "index_runs_total",
				Help:      "Total number of content index runs",
			},
			[]string{"status"},
		),

		policyViolations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_violations_total",
				Help:      "Total number of lint policy violations",
			},
			[]string{"policy", "severity"},
		),

		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "watch_reloads_total",
				Help:      "Total number of watch-triggered reloads",
			},
			[]string{"trigger"},
		),
	}

	registry.MustRegister(
		m.loadsTotal,
		m.loadDuration,
		m.configErrors,
		m.documentsIndexed,
		m.indexRuns,
		m.policyViolations,
		m.reloads,
	)

	return m, nil
}

// RecordLoad records a configuration load outcome ("ok" or "error").
func (m *Metrics) RecordLoad(result string, duration time.Duration) {
	if m.loadsTotal == nil {
		return
	}
	m.loadsTotal.WithLabelValues(result).Inc()
	m.loadDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordConfigError records a rejected configuration by error kind.
func (m *Metrics) RecordConfigError(kind string) {
	if m.configErrors == nil {
		return
	}
	m.configErrors.WithLabelValues(kind).Inc()
}

// RecordIndexRun records a content index run and the resulting document count.
func (m *Metrics) RecordIndexRun(status string, documents int) {
	if m.indexRuns == nil {
		return
	}
	m.indexRuns.WithLabelValues(status).Inc()
	if status == "ok" {
		m.documentsIndexed.Set(float64(documents))
	}
}

// RecordPolicyViolation records a lint violation.
func (m *Metrics) RecordPolicyViolation(policy, severity string) {
	if m.policyViolations == nil {
		return
	}
	m.policyViolations.WithLabelValues(policy, severity).Inc()
}

// RecordReload records a watch-triggered reload ("config" or "content").
func (m *Metrics) RecordReload(trigger string) {
	if m.reloads == nil {
		return
	}
	m.reloads.WithLabelValues(trigger).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Serve exposes the metrics endpoint until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, logger zerolog.Logger) error {
	if !m.config.Enabled || m.config.ListenAddress == "" {
		return nil
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", m.config.ListenAddress).Str("path", path).Msg("Serving metrics")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
