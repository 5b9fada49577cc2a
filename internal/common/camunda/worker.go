// internal/common/camunda/worker.go
package camunda

import (
	"sync"
	"time"

	"valuation-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// HandlerFunc matches the Zeebe job handler signature.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// Middleware decorates a handler for one task type, e.g. with tracing.
type Middleware func(taskType string, next HandlerFunc) HandlerFunc

type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// Chain applies middlewares so the first one listed runs outermost.
func Chain(taskType string, handler HandlerFunc, middlewares ...Middleware) HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](taskType, handler)
	}
	return handler
}

func NewWorker(client zbc.Client, opts WorkerOptions, handler HandlerFunc, log logger.Logger, middlewares ...Middleware) *CamundaWorker {
	jobWorker := client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(worker.JobHandler(Chain(opts.TaskType, handler, middlewares...))).
		MaxJobsActive(opts.MaxJobsActive).
		Timeout(opts.Timeout).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      opts.TaskType,
		"maxJobsActive": opts.MaxJobsActive,
		"timeout_ms":    opts.Timeout.Milliseconds(),
	})

	return &CamundaWorker{
		worker:   jobWorker,
		logger:   log,
		taskType: opts.TaskType,
	}
}

// Stop closes the job worker and waits for in-flight jobs.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}

// Pool tracks started workers so they can be stopped together.
type Pool struct {
	mu      sync.Mutex
	workers []*CamundaWorker
}

func (p *Pool) Add(w *CamundaWorker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.workers = append(p.workers, w)
}

func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// StopAll stops every worker concurrently.
func (p *Pool) StopAll() {
	p.mu.Lock()
	workers := p.workers
	p.workers = nil
	p.mu.Unlock()

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w *CamundaWorker) {
			defer wg.Done()
			w.Stop()
		}(w)
	}
	wg.Wait()
}
