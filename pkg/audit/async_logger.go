package audit

import (
	"context"
	"time"

	"github.com/orgkit/gatehouse/pkg/async"
	"github.com/orgkit/gatehouse/pkg/observability"
)

// AsyncLogger decouples request handling from event persistence: Log
// queues the event and returns immediately, a worker pool writes through
// to the wrapped logger. Events are best-effort; a full queue drops the
// oldest-pending work rather than blocking a request.
type AsyncLogger struct {
	inner Logger
	pool  *async.WorkerPool
}

const (
	asyncWorkers   = 2
	asyncQueueSize = 256
	asyncTimeout   = 5 * time.Second
)

// NewAsyncLogger wraps a logger with asynchronous delivery
func NewAsyncLogger(inner Logger, log *observability.Logger) *AsyncLogger {
	return &AsyncLogger{
		inner: inner,
		pool:  async.NewWorkerPool(context.Background(), asyncWorkers, asyncQueueSize, "audit delivery", asyncTimeout, log),
	}
}

// Log queues the event for background delivery. The returned error only
// reflects queueing; delivery failures are logged by the pool.
func (l *AsyncLogger) Log(_ context.Context, event *Event) error {
	return l.pool.Submit(func(ctx context.Context) error {
		return l.inner.Log(ctx, event)
	})
}

// Close drains queued events and closes the wrapped logger
func (l *AsyncLogger) Close() error {
	err := l.pool.Shutdown(asyncTimeout)
	if cerr := l.inner.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
