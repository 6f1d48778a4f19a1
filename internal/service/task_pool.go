package service

import (
	"context"
	"log"
	"sync"
	"time"

	"agroprice/internal/domain"
)

// TaskPoolConfig holds settings for the parse task pool.
type TaskPoolConfig struct {
	Concurrency int
	QueueSize   int
	// TaskTimeout bounds a single task's run. Zero means no limit.
	TaskTimeout time.Duration
}

// TaskFunc is the body of a background task. It must return once ctx is done.
type TaskFunc func(ctx context.Context)

type poolJob struct {
	id  string
	ctx context.Context
	run TaskFunc
}

// TaskPool runs submitted tasks on a fixed number of workers fed by a bounded queue.
// Every task gets its own cancellable context derived from the pool's.
type TaskPool struct {
	cfg    TaskPoolConfig
	queue  chan poolJob
	wg     sync.WaitGroup
	base   context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	cancels map[string]context.CancelFunc
}

// NewTaskPool creates a TaskPool and starts its workers.
func NewTaskPool(cfg TaskPoolConfig) *TaskPool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	base, cancel := context.WithCancel(context.Background())
	p := &TaskPool{
		cfg:     cfg,
		queue:   make(chan poolJob, cfg.QueueSize),
		base:    base,
		cancel:  cancel,
		cancels: make(map[string]context.CancelFunc),
	}

	log.Printf("taskPool: started (concurrency=%d, queue=%d, taskTimeout=%s)",
		cfg.Concurrency, cfg.QueueSize, cfg.TaskTimeout)

	for i := 0; i < cfg.Concurrency; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues fn under id without blocking. It returns domain.ErrTaskPoolFull when the
// queue is saturated and domain.ErrTaskPoolClosed after Shutdown.
func (p *TaskPool) Submit(id string, fn TaskFunc) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return domain.ErrTaskPoolClosed
	}

	ctx, cancel := context.WithCancel(p.base)
	select {
	case p.queue <- poolJob{id: id, ctx: ctx, run: fn}:
		p.cancels[id] = cancel
		return nil
	default:
		cancel()
		return domain.ErrTaskPoolFull
	}
}

// Cancel cancels the context of a queued or running task. It reports whether the task
// was known to this pool.
func (p *TaskPool) Cancel(id string) bool {
	p.mu.Lock()
	cancel, ok := p.cancels[id]
	p.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Shutdown stops accepting tasks and waits for queued and running tasks to finish. If ctx
// expires first, every task context is cancelled and Shutdown still waits for the workers
// to return before reporting ctx's error.
func (p *TaskPool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	log.Printf("taskPool: shutting down, waiting for in-flight tasks...")

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		log.Printf("taskPool: shutdown complete")
		return nil
	case <-ctx.Done():
		log.Printf("taskPool: drain deadline reached, cancelling running tasks")
		p.cancel()
		<-done
		return ctx.Err()
	}
}

func (p *TaskPool) worker() {
	defer p.wg.Done()
	for job := range p.queue {
		p.run(job)
	}
}

func (p *TaskPool) run(job poolJob) {
	ctx := job.ctx
	if p.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.TaskTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("taskPool: task %s panicked: %v", job.id, r)
		}
		p.mu.Lock()
		if cancel, ok := p.cancels[job.id]; ok {
			cancel()
			delete(p.cancels, job.id)
		}
		p.mu.Unlock()
	}()

	job.run(ctx)
}
