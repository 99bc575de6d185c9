package jobs

import (
	"context"
	"sync"

	"github.com/hadithhub/hadith-backend/internal/logger"
)

// Task is one unit of detached background work. Errors are reported to
// the pool's log only; submitters never observe them.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool runs submitted tasks on a fixed set of workers behind a bounded
// queue. Submission never blocks: when the queue is full the task is
// dropped with a warning, preserving the caller's latency contract.
type Pool struct {
	log   *logger.Logger
	tasks chan Task

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	workers int
}

func NewPool(baseLog *logger.Logger, workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Pool{
		log:     baseLog.With("component", "JobPool"),
		tasks:   make(chan Task, queueSize),
		workers: workers,
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		p.log.Info("job pool already started")
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx)
	}
	p.log.Info("job pool started", "workers", p.workers, "queue", cap(p.tasks))
}

// Submit enqueues a task and reports whether it was accepted.
func (p *Pool) Submit(task Task) bool {
	if task.Run == nil {
		return false
	}
	select {
	case p.tasks <- task:
		return true
	default:
		p.log.Warn("job queue full, task dropped", "task", task.Name)
		return false
	}
}

func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Info("job pool stopped")
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-p.tasks:
			p.run(ctx, task)
		}
	}
}

func (p *Pool) run(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("task panic", "task", task.Name, "panic", r)
		}
	}()
	if err := task.Run(ctx); err != nil {
		p.log.Warn("task failed", "task", task.Name, "error", err)
	}
}
