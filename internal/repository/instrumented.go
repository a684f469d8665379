package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vbonduro/restock/internal/domain"
)

// Metrics holds the Prometheus collectors reporting repository traffic.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// MustNewMetrics registers the repository collectors on reg. Registration
// errors panic, matching promauto.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	calls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "restock",
			Subsystem: "repository",
			Name:      "calls_total",
			Help:      "Repository calls by operation, collection and outcome.",
		},
		[]string{"op", "collection", "status"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "restock",
			Subsystem: "repository",
			Name:      "call_duration_seconds",
			Help:      "Latency of repository calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op", "collection"},
	)
	reg.MustRegister(calls, duration)
	return &Metrics{calls: calls, duration: duration}
}

func (m *Metrics) observe(op string, c domain.Collection, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.calls.WithLabelValues(op, string(c), status).Inc()
	m.duration.WithLabelValues(op, string(c)).Observe(time.Since(start).Seconds())
}

// Instrumented decorates a Repository with metrics and debug logging.
type Instrumented struct {
	next    Repository
	metrics *Metrics
	logger  *slog.Logger
}

func Instrument(next Repository, metrics *Metrics, logger *slog.Logger) *Instrumented {
	return &Instrumented{next: next, metrics: metrics, logger: logger}
}

func (r *Instrumented) List(ctx context.Context, c domain.Collection) ([]Record, error) {
	start := time.Now()
	recs, err := r.next.List(ctx, c)
	r.done(ctx, "list", c, "", start, err)
	return recs, err
}

func (r *Instrumented) Insert(ctx context.Context, c domain.Collection, fields Record) error {
	start := time.Now()
	err := r.next.Insert(ctx, c, fields)
	r.done(ctx, "insert", c, "", start, err)
	return err
}

func (r *Instrumented) Update(ctx context.Context, c domain.Collection, id string, fields Record) error {
	start := time.Now()
	err := r.next.Update(ctx, c, id, fields)
	r.done(ctx, "update", c, id, start, err)
	return err
}

func (r *Instrumented) Delete(ctx context.Context, c domain.Collection, id string) error {
	start := time.Now()
	err := r.next.Delete(ctx, c, id)
	r.done(ctx, "delete", c, id, start, err)
	return err
}

func (r *Instrumented) done(ctx context.Context, op string, c domain.Collection, id string, start time.Time, err error) {
	r.metrics.observe(op, c, start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "repository call failed", "op", op, "collection", c, "id", id, "error", err)
		return
	}
	r.logger.DebugContext(ctx, "repository call", "op", op, "collection", c, "id", id,
		"duration_ms", time.Since(start).Milliseconds())
}
