package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics exposes gate metrics on a private registry.
// Collectors are created on first use and named namespace_name.
type PrometheusMetrics struct {
	namespace     string
	listenAddress string
	logger        *slog.Logger

	registry *prometheus.Registry
	factory  promauto.Factory

	mu         sync.Mutex
	gauges     map[string]prometheus.Gauge
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram

	server *http.Server
}

// NewPrometheusMetrics creates a Prometheus backend. When listenAddress is
// non-empty, Initialize serves /metrics on it until Shutdown.
func NewPrometheusMetrics(namespace, listenAddress string, logger *slog.Logger) *PrometheusMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	registry := prometheus.NewRegistry()
	return &PrometheusMetrics{
		namespace:     namespace,
		listenAddress: listenAddress,
		logger:        logger,
		registry:      registry,
		factory:       promauto.With(registry),
		gauges:        make(map[string]prometheus.Gauge),
		counters:      make(map[string]prometheus.Counter),
		histograms:    make(map[string]prometheus.Histogram),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *PrometheusMetrics) Initialize(ctx context.Context) error {
	if p.listenAddress == "" {
		return nil
	}

	listener, err := net.Listen("tcp", p.listenAddress)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())

	p.mu.Lock()
	p.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	server := p.server
	p.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("metrics server stopped", "error", err)
		}
	}()

	p.logger.Info("prometheus metrics listening", "address", listener.Addr().String())
	return nil
}

func (p *PrometheusMetrics) Flush(ctx context.Context) error {
	return nil
}

func (p *PrometheusMetrics) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	server := p.server
	p.server = nil
	p.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func (p *PrometheusMetrics) UpdateGauge(ctx context.Context, name string, value float64) error {
	p.mu.Lock()
	gauge, ok := p.gauges[name]
	if !ok {
		gauge = p.factory.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Name:      name,
			Help:      "Gauge " + name,
		})
		p.gauges[name] = gauge
	}
	p.mu.Unlock()

	gauge.Set(value)
	return nil
}

func (p *PrometheusMetrics) IncrementCounter(ctx context.Context, name string, value uint64) error {
	p.mu.Lock()
	counter, ok := p.counters[name]
	if !ok {
		counter = p.factory.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      name,
			Help:      "Counter " + name,
		})
		p.counters[name] = counter
	}
	p.mu.Unlock()

	counter.Add(float64(value))
	return nil
}

func (p *PrometheusMetrics) RecordHistogram(ctx context.Context, name string, value float64) error {
	p.mu.Lock()
	histogram, ok := p.histograms[name]
	if !ok {
		histogram = p.factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      name,
			Help:      "Histogram " + name,
			Buckets:   prometheus.ExponentialBuckets(1000, 4, 10),
		})
		p.histograms[name] = histogram
	}
	p.mu.Unlock()

	histogram.Observe(value)
	return nil
}
