package workers

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spacesedan/sentigate/internal/telemetry"
)

const (
	DEFAULT_QUEUE_SIZE   = 256
	DEFAULT_WORKER_COUNT = 4
	DEFAULT_TASK_TIMEOUT = 15 * time.Second
)

// Task is a unit of post-response work: a log write, an event publish, a
// cache fill. Run receives a context with the pool's task timeout applied.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool consumes a bounded task queue with a fixed set of workers. Failures
// and panics are contained here; nothing a task does can reach a request
// handler.
type Pool struct {
	tasks   chan Task
	wg      sync.WaitGroup
	tele    *telemetry.Emitter
	timeout time.Duration
	closed  atomic.Bool
}

func NewPool(queueSize, workerCount int, tele *telemetry.Emitter) *Pool {
	if queueSize <= 0 {
		queueSize = DEFAULT_QUEUE_SIZE
	}
	if workerCount <= 0 {
		workerCount = DEFAULT_WORKER_COUNT
	}

	p := &Pool{
		tasks:   make(chan Task, queueSize),
		tele:    tele,
		timeout: DEFAULT_TASK_TIMEOUT,
	}
	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	slog.Info("[Workers] Worker pool started",
		slog.Int("queue_size", queueSize),
		slog.Int("workers", workerCount))
	return p
}

// Submit enqueues a task without blocking. A full queue drops the task and
// reports false; callers treat background work as advisory.
func (p *Pool) Submit(task Task) bool {
	if p.closed.Load() {
		p.tele.TaskOutcome(task.Name, telemetry.OutcomeDropped)
		return false
	}
	select {
	case p.tasks <- task:
		return true
	default:
		slog.Warn("[Workers] Task queue full, dropping task", slog.String("task", task.Name))
		p.tele.TaskOutcome(task.Name, telemetry.OutcomeDropped)
		return false
	}
}

// Close stops intake, drains the queue, and waits for the workers.
func (p *Pool) Close() {
	if p.closed.CompareAndSwap(false, true) {
		close(p.tasks)
	}
	p.wg.Wait()
	slog.Info("[Workers] Worker pool drained")
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[Workers] Task panicked",
				slog.String("task", task.Name),
				slog.Any("panic", r))
			p.tele.TaskOutcome(task.Name, telemetry.OutcomePanic)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := task.Run(ctx); err != nil {
		slog.Warn("[Workers] Task failed",
			slog.String("task", task.Name),
			slog.String("error", err.Error()))
		p.tele.TaskOutcome(task.Name, telemetry.OutcomeError)
		return
	}
	p.tele.TaskOutcome(task.Name, telemetry.OutcomeOK)
}
