// Package metrics records verdict and badge registry activity.
//
// Components take a Metrics and report counters, gauges and histograms by
// the names declared below. A Collection fans each call out to every
// configured backend.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Metrics is a sink for gate metrics.
type Metrics interface {
	Initialize(ctx context.Context) error
	// Flush reports buffered values.
	Flush(ctx context.Context) error
	Shutdown(ctx context.Context) error

	UpdateGauge(ctx context.Context, name string, value float64) error
	// IncrementCounter adds value to a monotonically increasing counter,
	// such as verdicts issued.
	IncrementCounter(ctx context.Context, name string, value uint64) error
	// RecordHistogram observes one sample, such as an evaluation latency.
	RecordHistogram(ctx context.Context, name string, value float64) error
}

// Collection is the set of backends chosen at startup. Every call reaches
// every backend; the returned error joins all backend failures.
type Collection struct {
	backends []Metrics
}

func NewCollection(backends ...Metrics) *Collection {
	return &Collection{backends: backends}
}

func (c *Collection) each(fn func(Metrics) error) error {
	var errs []error
	for _, m := range c.backends {
		if err := fn(m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Collection) Initialize(ctx context.Context) error {
	return c.each(func(m Metrics) error { return m.Initialize(ctx) })
}

func (c *Collection) Flush(ctx context.Context) error {
	return c.each(func(m Metrics) error { return m.Flush(ctx) })
}

func (c *Collection) Shutdown(ctx context.Context) error {
	return c.each(func(m Metrics) error { return m.Shutdown(ctx) })
}

func (c *Collection) UpdateGauge(ctx context.Context, name string, value float64) error {
	return c.each(func(m Metrics) error { return m.UpdateGauge(ctx, name, value) })
}

func (c *Collection) IncrementCounter(ctx context.Context, name string, value uint64) error {
	return c.each(func(m Metrics) error { return m.IncrementCounter(ctx, name, value) })
}

func (c *Collection) RecordHistogram(ctx context.Context, name string, value float64) error {
	return c.each(func(m Metrics) error { return m.RecordHistogram(ctx, name, value) })
}

// NoopMetrics discards everything. Components default to it until
// WithMetrics is called.
type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) Initialize(ctx context.Context) error                              { return nil }
func (n *NoopMetrics) Flush(ctx context.Context) error                                   { return nil }
func (n *NoopMetrics) Shutdown(ctx context.Context) error                                { return nil }
func (n *NoopMetrics) UpdateGauge(ctx context.Context, name string, value float64) error { return nil }
func (n *NoopMetrics) IncrementCounter(ctx context.Context, name string, value uint64) error {
	return nil
}
func (n *NoopMetrics) RecordHistogram(ctx context.Context, name string, value float64) error {
	return nil
}

type summary struct {
	Count uint64  `json:"count"`
	Sum   float64 `json:"sum"`
}

// LogMetrics keeps values in memory and writes them to the log on Flush.
// It backs the "log" metrics setting and is what tests read counters from.
type LogMetrics struct {
	logger     *slog.Logger
	mu         sync.RWMutex
	gauges     map[string]float64
	counters   map[string]uint64
	histograms map[string]summary
}

// NewLogMetrics creates a LogMetrics. A nil logger selects slog.Default.
func NewLogMetrics(logger *slog.Logger) *LogMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMetrics{
		logger:     logger,
		gauges:     make(map[string]float64),
		counters:   make(map[string]uint64),
		histograms: make(map[string]summary),
	}
}

func (l *LogMetrics) Initialize(ctx context.Context) error {
	return nil
}

func (l *LogMetrics) Flush(ctx context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	l.logger.Info("gate metrics",
		"gauges", l.gauges,
		"counters", l.counters,
		"histograms", l.histograms,
	)
	return nil
}

func (l *LogMetrics) Shutdown(ctx context.Context) error {
	return nil
}

func (l *LogMetrics) UpdateGauge(ctx context.Context, name string, value float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.gauges[name] = value
	return nil
}

func (l *LogMetrics) IncrementCounter(ctx context.Context, name string, value uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.counters[name] += value
	return nil
}

func (l *LogMetrics) RecordHistogram(ctx context.Context, name string, value float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	h := l.histograms[name]
	h.Count++
	h.Sum += value
	l.histograms[name] = h
	return nil
}

// Counter returns the accumulated value of a counter.
func (l *LogMetrics) Counter(name string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.counters[name]
}

// Observations returns how many samples a histogram has received.
func (l *LogMetrics) Observations(name string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.histograms[name].Count
}

// Metric names recorded by the policy engine and badge registry.
const (
	MetricVerdictsSupported         = "verdicts_supported"
	MetricVerdictsUnsupported       = "verdicts_unsupported"
	MetricEvaluationErrors          = "evaluation_errors"
	MetricEvaluationTimeNanoseconds = "evaluation_time_nanoseconds"
	MetricBadgesCreated             = "badges_created"
	MetricBadgeCreateFailures       = "badge_create_failures"
	MetricBadgeLookups              = "badge_lookups"
	MetricBadgeLookupHits           = "badge_lookup_hits"
	MetricMintsInFlight             = "mints_in_flight"
)
