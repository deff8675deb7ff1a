package notify

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"certflow/internal/platform/metrics"
)

const (
	defaultCapacity = 256
	defaultWorkers  = 4
	maxAttempts     = 3
	retryBackoff    = 500 * time.Millisecond
)

// Queue decouples the orchestrator from the broker. Enqueue never blocks:
// when the buffer is full the event is counted as dropped and the caller
// proceeds. Workers drain the buffer and publish with bounded retries.
type Queue struct {
	events    chan Event
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	workers   int
	group     *errgroup.Group
	cancel    context.CancelFunc
}

type QueueOption func(*queueConfig)

type queueConfig struct {
	capacity int
	workers  int
}

func WithCapacity(n int) QueueOption {
	return func(c *queueConfig) { c.capacity = n }
}

func WithWorkers(n int) QueueOption {
	return func(c *queueConfig) { c.workers = n }
}

func NewQueue(publisher Publisher, logger *slog.Logger, m *metrics.Metrics, opts ...QueueOption) *Queue {
	cfg := queueConfig{capacity: defaultCapacity, workers: defaultWorkers}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Queue{
		events:    make(chan Event, cfg.capacity),
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		workers:   cfg.workers,
		cancel:    func() {},
	}
}

// Start launches the worker pool. Workers run until Stop is called and the
// buffer has drained.
func (q *Queue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)
	q.group, ctx = errgroup.WithContext(ctx)
	for range q.workers {
		q.group.Go(func() error {
			q.run(ctx)
			return nil
		})
	}
}

// Enqueue hands off an event without blocking the transition that produced
// it. Full buffer means the event is dropped and counted.
func (q *Queue) Enqueue(event Event) {
	select {
	case q.events <- event:
	default:
		if q.metrics != nil {
			q.metrics.NotificationsDropped.Inc()
		}
		q.logger.Warn("notification queue full, dropping event",
			"application_id", event.ApplicationID.String(),
			"action", event.Action,
		)
	}
}

// Stop closes the intake, waits for workers to drain the buffer, then closes
// the publisher.
func (q *Queue) Stop() {
	close(q.events)
	if q.group != nil {
		_ = q.group.Wait()
	}
	q.cancel()
	q.publisher.Close()
}

func (q *Queue) run(ctx context.Context) {
	for event := range q.events {
		q.deliver(ctx, event)
	}
}

func (q *Queue) deliver(ctx context.Context, event Event) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := q.publisher.Publish(ctx, event)
		if err == nil {
			if q.metrics != nil {
				q.metrics.NotificationsPublished.Inc()
			}
			return
		}
		q.logger.Warn("notification publish failed",
			"application_id", event.ApplicationID.String(),
			"action", event.Action,
			"attempt", attempt,
			"error", err,
		)
		if attempt < maxAttempts {
			select {
			case <-time.After(retryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				attempt = maxAttempts
			}
		}
	}
	if q.metrics != nil {
		q.metrics.NotificationsDropped.Inc()
	}
	q.logger.Error("notification dropped after retries",
		"application_id", event.ApplicationID.String(),
		"action", event.Action,
	)
}
