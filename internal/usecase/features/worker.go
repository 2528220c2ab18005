// Package features keeps the external similarity service's feature store in
// sync with stored report images.
package features

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pawdex/pawdex/internal/metrics"
)

// Client registers and removes image feature vectors. The similarity
// service keys each feature by the id it is given; reverse search and
// removal use the same ids.
type Client interface {
	SaveFeature(ctx context.Context, id string) error
	RemoveFeatures(ctx context.Context, ids []string) error
}

const defaultQueueSize = 256

// Worker registers report images with the similarity service in the
// background so ingest latency never depends on it. Registrations are
// retried with backoff; a full queue drops the task rather than blocking
// the producer.
type Worker struct {
	client     Client
	retries    int
	retryDelay time.Duration
	logger     *zap.Logger

	queue chan string
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewWorker creates and starts the worker. retries is the number of
// attempts per report. Close must be called on shutdown.
func NewWorker(client Client, retries int, logger *zap.Logger) *Worker {
	w := &Worker{
		client:     client,
		retries:    retries,
		retryDelay: time.Second,
		logger:     logger,
		queue:      make(chan string, defaultQueueSize),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

// Enqueue schedules the report id for registration. It never blocks: when
// the queue is full or the worker is closed the task is dropped and logged.
func (w *Worker) Enqueue(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		w.drop(id, "worker closed")
		return
	}

	select {
	case w.queue <- id:
	default:
		w.drop(id, "queue full")
	}
}

// Close stops accepting tasks, drains the queue, and waits for the worker
// goroutine to finish.
func (w *Worker) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *Worker) run() {
	defer w.wg.Done()
	for id := range w.queue {
		w.register(id)
	}
}

// register attempts SaveFeature up to w.retries times with linear backoff.
func (w *Worker) register(id string) {
	var err error
	for attempt := 1; attempt <= w.retries; attempt++ {
		if err = w.client.SaveFeature(context.Background(), id); err == nil {
			metrics.FeatureRegistrationsTotal.WithLabelValues("success").Inc()
			return
		}
		w.logger.Warn("Feature registration attempt failed",
			zap.String("report", id),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < w.retries {
			metrics.FeatureRegistrationsTotal.WithLabelValues("retry").Inc()
			time.Sleep(w.retryDelay * time.Duration(attempt))
		}
	}

	metrics.FeatureRegistrationsTotal.WithLabelValues("failed").Inc()
	w.logger.Error("Feature registration gave up",
		zap.String("report", id),
		zap.Int("attempts", w.retries),
		zap.Error(err),
	)
}

func (w *Worker) drop(id, reason string) {
	metrics.FeatureRegistrationsTotal.WithLabelValues("dropped").Inc()
	w.logger.Warn("Feature registration dropped",
		zap.String("report", id),
		zap.String("reason", reason),
	)
}
