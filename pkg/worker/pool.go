/*
Package worker provides a fixed-size worker pool with a bounded queue,
optional rate limiting and a Wait barrier that reports every task failure.

Basic usage:

	pool, err := worker.NewPool(worker.Config{Workers: 4})
	if err != nil {
		return err
	}

	if err := pool.Start(ctx); err != nil {
		return err
	}

	pool.Submit(worker.Task{
		ID: 1,
		Execute: func(ctx context.Context) error {
			return process(ctx)
		},
	})

	// Wait returns once every submitted task has finished. The error joins
	// all task failures. The pool can be started again afterwards.
	summary, err := pool.Wait()
*/
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Task represents a unit of work to be processed by the worker pool
type Task struct {
	// ID identifies the task in error messages
	ID int

	// Execute performs the work. The context is cancelled when the pool
	// is stopped or the context given to Start is done.
	Execute func(context.Context) error
}

// Config holds the configuration for the worker pool
type Config struct {
	// Workers is the number of concurrent workers
	Workers int

	// RateLimit is the maximum number of task starts per second (0 for unlimited)
	RateLimit int

	// QueueSize bounds the number of tasks waiting for a worker.
	// Submit blocks while the queue is full. Defaults to Workers*2.
	QueueSize int
}

// Pool defines the interface for a worker pool
type Pool interface {
	// Start launches the workers for a new run
	Start(context.Context) error

	// Submit queues a task, blocking while the queue is full
	Submit(Task) error

	// Wait stops accepting tasks, blocks until every accepted task has
	// finished and returns the run summary with all task errors joined
	Wait() (Summary, error)

	// GetStats returns current statistics about the pool
	GetStats() Stats

	// Status returns the current status of the pool
	Status() Status

	// Stop cancels the current run and shuts the workers down
	Stop() error
}

// pool implements the Pool interface
type pool struct {
	config  Config
	limiter *rate.Limiter

	mu      sync.RWMutex
	running bool
	tasks   chan Task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	errMu sync.Mutex
	errs  []error

	startTime     time.Time
	submitted     atomic.Int64
	completed     atomic.Int64
	failed        atomic.Int64
	activeWorkers atomic.Int32
}

// NewPool creates a new worker pool with the given configuration
func NewPool(config Config) (Pool, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if config.QueueSize == 0 {
		config.QueueSize = config.Workers * 2
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	return &pool{
		config:  config,
		limiter: limiter,
	}, nil
}

// validateConfig checks if the pool configuration is valid
func validateConfig(config Config) error {
	if config.Workers <= 0 {
		return fmt.Errorf("number of workers must be positive")
	}
	if config.RateLimit < 0 {
		return fmt.Errorf("rate limit must be non-negative")
	}
	if config.QueueSize < 0 {
		return fmt.Errorf("queue size must be non-negative")
	}
	return nil
}

// Start launches the workers. Counters and collected errors are reset, so
// a pool that finished a run with Wait or Stop can be started again.
func (p *pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("pool already started")
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.tasks = make(chan Task, p.config.QueueSize)
	p.running = true
	p.startTime = time.Now()

	p.submitted.Store(0)
	p.completed.Store(0)
	p.failed.Store(0)
	p.errMu.Lock()
	p.errs = nil
	p.errMu.Unlock()

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(p.ctx, p.tasks)
	}

	return nil
}

// Submit adds a task to the pool for processing
func (p *pool) Submit(task Task) error {
	if task.Execute == nil {
		return fmt.Errorf("task %d has no Execute function", task.ID)
	}

	// The read lock is held across the send so Wait cannot close the
	// queue under a blocked sender. Workers keep draining meanwhile.
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.running {
		return fmt.Errorf("pool not started")
	}

	select {
	case <-p.ctx.Done():
		return fmt.Errorf("pool is shutting down: %w", p.ctx.Err())
	case p.tasks <- task:
		p.submitted.Add(1)
		return nil
	}
}

// Wait blocks until all submitted tasks are processed
func (p *pool) Wait() (Summary, error) {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return Summary{}, fmt.Errorf("pool not started")
	}
	p.running = false
	close(p.tasks)
	cancel := p.cancel
	p.mu.Unlock()

	p.wg.Wait()
	cancel()

	summary := Summary{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Duration:  time.Since(p.startTime),
	}

	p.errMu.Lock()
	err := errors.Join(p.errs...)
	p.errMu.Unlock()

	return summary, err
}

// Stop cancels the running tasks and waits briefly for the workers to exit.
// Calling Stop on a pool that is not running is a no-op.
func (p *pool) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.cancel()
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(500 * time.Millisecond):
		return fmt.Errorf("shutdown timed out")
	}
}

func (p *pool) GetStats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var uptime time.Duration
	if !p.startTime.IsZero() {
		uptime = time.Since(p.startTime)
	}

	return Stats{
		ActiveWorkers:  int(p.activeWorkers.Load()),
		QueuedTasks:    p.queued(),
		SubmittedTasks: p.submitted.Load(),
		CompletedTasks: p.completed.Load(),
		FailedTasks:    p.failed.Load(),
		Status:         p.getStatus(),
		Uptime:         uptime,
	}
}

func (p *pool) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.getStatus()
}

// getStatus must be called with p.mu held
func (p *pool) getStatus() Status {
	if !p.running {
		return StatusStopped
	}
	if p.activeWorkers.Load() > 0 || p.queued() > 0 {
		return StatusProcessing
	}
	return StatusIdle
}

func (p *pool) queued() int {
	if p.tasks == nil {
		return 0
	}
	return len(p.tasks)
}

// worker processes tasks until the queue is closed. Tasks left in the queue
// after cancellation are drained and recorded as failed.
func (p *pool) worker(ctx context.Context, tasks <-chan Task) {
	defer p.wg.Done()

	for task := range tasks {
		p.activeWorkers.Add(1)
		err := p.run(ctx, task)
		p.activeWorkers.Add(-1)

		if err != nil {
			p.failed.Add(1)
			p.errMu.Lock()
			p.errs = append(p.errs, err)
			p.errMu.Unlock()
			continue
		}
		p.completed.Add(1)
	}
}

func (p *pool) run(ctx context.Context, task Task) (err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("task %d not started: %w", task.ID, ctxErr)
	}

	if p.limiter != nil {
		if limErr := p.limiter.Wait(ctx); limErr != nil {
			return fmt.Errorf("task %d: rate limiter error: %w", task.ID, limErr)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %d panicked: %v", task.ID, r)
		}
	}()

	return task.Execute(ctx)
}
