package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

type failingMetrics struct {
	NoopMetrics
}

func (f *failingMetrics) IncrementCounter(ctx context.Context, name string, value uint64) error {
	return errors.New("backend down")
}

func TestCollectionDelegates(t *testing.T) {
	ctx := context.Background()
	a := NewLogMetrics(slog.New(slog.NewTextHandler(io.Discard, nil)))
	b := NewLogMetrics(slog.New(slog.NewTextHandler(io.Discard, nil)))

	c := NewCollection(a, b)

	if err := c.IncrementCounter(ctx, MetricBadgesCreated, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.IncrementCounter(ctx, MetricBadgesCreated, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := c.RecordHistogram(ctx, MetricEvaluationTimeNanoseconds, 1200); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, m := range []*LogMetrics{a, b} {
		if got := m.Counter(MetricBadgesCreated); got != 4 {
			t.Errorf("backend %d: Expected 4, got %d", i, got)
		}
		if got := m.Observations(MetricEvaluationTimeNanoseconds); got != 1 {
			t.Errorf("backend %d: Expected 1 observation, got %d", i, got)
		}
	}
}

func TestCollectionReachesEveryBackend(t *testing.T) {
	ctx := context.Background()
	healthy := NewLogMetrics(slog.New(slog.NewTextHandler(io.Discard, nil)))
	c := NewCollection(&failingMetrics{}, healthy, &failingMetrics{})

	err := c.IncrementCounter(ctx, MetricBadgeLookups, 1)
	if err == nil {
		t.Fatal("Expected error from failing backend")
	}
	if got := strings.Count(err.Error(), "backend down"); got != 2 {
		t.Errorf("Expected both failures joined, got %q", err)
	}
	if got := healthy.Counter(MetricBadgeLookups); got != 1 {
		t.Errorf("healthy backend counter = %d, want 1", got)
	}
}

func TestEmptyCollection(t *testing.T) {
	c := NewCollection()
	if err := c.IncrementCounter(context.Background(), MetricBadgeLookups, 1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPrometheusMetricsExposition(t *testing.T) {
	ctx := context.Background()
	p := NewPrometheusMetrics("tokengate", "", nil)

	if err := p.Initialize(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Shutdown(ctx)

	p.IncrementCounter(ctx, MetricBadgesCreated, 2)
	p.IncrementCounter(ctx, MetricBadgesCreated, 1)
	p.UpdateGauge(ctx, MetricMintsInFlight, 7)
	p.RecordHistogram(ctx, MetricEvaluationTimeNanoseconds, 2500)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		"tokengate_badges_created 3",
		"tokengate_mints_in_flight 7",
		"tokengate_evaluation_time_nanoseconds_count 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestPrometheusRegistriesAreIndependent(t *testing.T) {
	ctx := context.Background()
	first := NewPrometheusMetrics("tokengate", "", nil)
	second := NewPrometheusMetrics("tokengate", "", nil)

	if err := first.IncrementCounter(ctx, MetricBadgeLookups, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := second.IncrementCounter(ctx, MetricBadgeLookups, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
