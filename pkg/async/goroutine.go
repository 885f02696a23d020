package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/orgkit/gatehouse/pkg/observability"
)

// SafeGo executes a function in a goroutine with context cancellation,
// panic recovery, and a per-task timeout. Errors and panics are logged,
// never propagated: the task is best-effort by contract.
func SafeGo(parentCtx context.Context, timeout time.Duration, taskName string, log *observability.Logger, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(parentCtx, timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				log.WithFields(map[string]interface{}{
					"task":  taskName,
					"panic": r,
					"stack": string(debug.Stack()),
				}).Error("background task panicked")
			}
		}()

		if err := fn(ctx); err != nil {
			log.WithError(err).WithField("task", taskName).Warn("background task failed")
		}
	}()
}

// WorkerPool processes submitted tasks on a fixed set of workers with a
// bounded queue. Submissions never block the caller: when the queue is
// full the task is dropped and reported through the drop counter.
type WorkerPool struct {
	taskName string
	timeout  time.Duration
	log      *observability.Logger

	workCh chan func(context.Context) error
	doneCh chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	dropped int64
	closed  bool
}

// NewWorkerPool starts a pool of workers draining a queue of the given
// capacity.
func NewWorkerPool(ctx context.Context, workers, queueSize int, taskName string, timeout time.Duration, log *observability.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(ctx)
	pool := &WorkerPool{
		taskName: taskName,
		timeout:  timeout,
		log:      log,
		workCh:   make(chan func(context.Context) error, queueSize),
		doneCh:   make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}

	go func() {
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				pool.worker()
			}()
		}
		wg.Wait()
		close(pool.doneCh)
	}()

	return pool
}

// Submit queues a task without blocking. A full queue drops the task; a
// shut-down pool returns an error.
func (p *WorkerPool) Submit(fn func(context.Context) error) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("worker pool %s shut down", p.taskName)
	}

	select {
	case p.workCh <- fn:
		p.mu.Unlock()
		return nil
	default:
		p.dropped++
		dropped := p.dropped
		p.mu.Unlock()
		p.log.WithFields(map[string]interface{}{
			"task":    p.taskName,
			"dropped": dropped,
		}).Warn("worker pool queue full, dropping task")
		return fmt.Errorf("worker pool %s queue full", p.taskName)
	}
}

// Dropped returns how many submissions the pool has discarded
func (p *WorkerPool) Dropped() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Shutdown stops accepting work, drains the queue, and waits up to the
// given timeout for workers to finish.
func (p *WorkerPool) Shutdown(timeout time.Duration) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.workCh)
	p.mu.Unlock()

	select {
	case <-p.doneCh:
		p.cancel()
		return nil
	case <-time.After(timeout):
		p.cancel()
		return fmt.Errorf("worker pool %s shutdown timed out after %v", p.taskName, timeout)
	}
}

func (p *WorkerPool) worker() {
	for fn := range p.workCh {
		p.runTask(fn)
	}
}

func (p *WorkerPool) runTask(fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			p.log.WithFields(map[string]interface{}{
				"task":  p.taskName,
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("worker task panicked")
		}
	}()

	if err := fn(ctx); err != nil {
		p.log.WithError(err).WithField("task", p.taskName).Warn("worker task failed")
	}
}
