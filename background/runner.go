// Package background runs fire-and-forget jobs. A job never reports back to the
// request that submitted it: failures are logged and counted, not retried.
package background

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"choice-app/metrics"

	"go.uber.org/zap"
)

// job results
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultPanic    = "panic"
	ResultRejected = "rejected"
)

// ErrStopped is returned by Submit after Shutdown was called
var ErrStopped = errors.New("background runner stopped")

// Job is the unit of work; ctx is detached from the request and bounded by the job timeout
type Job func(ctx context.Context) error

// Runner starts one goroutine per job and waits for them on shutdown
type Runner struct {
	timeout time.Duration
	log     *zap.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup

	base   context.Context
	cancel context.CancelFunc
}

// NewRunner creates a runner; timeout bounds every job
func NewRunner(timeout time.Duration, log *zap.Logger) *Runner {
	base, cancel := context.WithCancel(context.Background())
	return &Runner{
		timeout: timeout,
		log:     log,
		base:    base,
		cancel:  cancel,
	}
}

// Submit starts the job. It only fails when the runner is shutting down.
func (r *Runner) Submit(name string, job Job) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.stopped {
		r.log.Warn("background job rejected", zap.String("job", name))
		metrics.RecordJob(name, ResultRejected)
		return ErrStopped
	}

	r.wg.Add(1)
	go r.run(name, job)

	return nil
}

func (r *Runner) run(name string, job Job) {
	defer r.wg.Done()

	ctx, cancel := context.WithTimeout(r.base, r.timeout)
	defer cancel()

	start := time.Now()
	err := r.safely(ctx, job)
	log := r.log.With(zap.String("job", name), zap.Duration("took", time.Since(start)))

	var p *panicError
	switch {
	case errors.As(err, &p):
		log.Error("background job panicked", zap.Any("panic", p.value), zap.ByteString("stack", p.stack))
		metrics.RecordJob(name, ResultPanic)
	case err != nil:
		log.Error("background job failed", zap.Error(err))
		metrics.RecordJob(name, ResultError)
	default:
		log.Debug("background job done")
		metrics.RecordJob(name, ResultOK)
	}
}

type panicError struct {
	value interface{}
	stack []byte
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

func (r *Runner) safely(ctx context.Context, job Job) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &panicError{value: v, stack: debug.Stack()}
		}
	}()

	return job(ctx)
}

// Shutdown stops accepting jobs and waits for the running ones. When ctx ends
// first the remaining jobs are cancelled and ctx.Err() is returned.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}
