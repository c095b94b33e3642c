package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultPollInterval = time.Second
	defaultBatchSize    = 100
)

// BatchStore is the worker's view of the outbox table.
type BatchStore interface {
	ProcessBatch(ctx context.Context, limit int, now time.Time, fn func(ctx context.Context, events []Event) error) (int, error)
}

// Metrics counts outbox throughput.
type Metrics struct {
	Published prometheus.Counter
	Failures  prometheus.Counter
}

// NewMetrics registers the outbox metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Published: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reconciler_outbox_published_total",
			Help: "Total outbox events published",
		}),
		Failures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reconciler_outbox_publish_failures_total",
			Help: "Total failed outbox publish batches",
		}),
	}
}

func (m *Metrics) addPublished(n int) {
	if m != nil {
		m.Published.Add(float64(n))
	}
}

func (m *Metrics) incFailures() {
	if m != nil {
		m.Failures.Inc()
	}
}

// Worker drains the outbox into a Publisher.
type Worker struct {
	store     BatchStore
	publisher Publisher
	logger    *slog.Logger
	metrics   *Metrics
	interval  time.Duration
	batchSize int
}

// Option configures a Worker.
type Option func(*Worker)

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func NewWorker(store BatchStore, publisher Publisher, logger *slog.Logger, opts ...Option) *Worker {
	w := &Worker{
		store:     store,
		publisher: publisher,
		logger:    logger,
		interval:  defaultPollInterval,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until ctx is cancelled. Publish failures are logged and retried
// on the next tick; they never stop the worker.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.ErrorContext(ctx, "outbox publish failed", "error", err)
			}
		}
	}
}

// Drain publishes batches until the outbox is empty and returns the number of
// events published.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := w.store.ProcessBatch(ctx, w.batchSize, time.Now(), w.publisher.Publish)
		if err != nil {
			w.metrics.incFailures()
			return total, err
		}
		w.metrics.addPublished(n)
		total += n
		if n < w.batchSize {
			return total, nil
		}
	}
}
