// internal/behavior/worker.go
package behavior

import (
	"context"

	"go.uber.org/zap"
)

// Job runs off the tick thread and returns a function to apply its result
// on the tick thread. A nil apply function means there is nothing to do.
type Job func(ctx context.Context) (apply func())

type namedJob struct {
	name string
	run  Job
}

// Worker executes blocking jobs one at a time on its own goroutine and
// queues their results for the tick thread.
type Worker struct {
	logger  *zap.Logger
	jobs    chan namedJob
	results chan func()
}

// NewWorker creates a Worker with room for queueSize pending jobs.
func NewWorker(logger *zap.Logger, queueSize int) *Worker {
	if queueSize <= 0 {
		queueSize = 8
	}
	return &Worker{
		logger:  logger.Named("worker"),
		jobs:    make(chan namedJob, queueSize),
		results: make(chan func(), queueSize),
	}
}

// Submit queues a job without blocking and reports whether it was accepted.
func (w *Worker) Submit(name string, job Job) bool {
	select {
	case w.jobs <- namedJob{name: name, run: job}:
		return true
	default:
		w.logger.Warn("Worker queue full, dropping job", zap.String("job", name))
		return false
	}
}

// Results delivers apply functions in job completion order.
func (w *Worker) Results() <-chan func() { return w.results }

// Run executes jobs until ctx is cancelled. Jobs still queued at that point
// are abandoned.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Debug("Worker started")
	defer w.logger.Debug("Worker stopped")
	for {
		select {
		case <-ctx.Done():
			return nil
		case job := <-w.jobs:
			apply := w.execute(ctx, job)
			if apply == nil {
				continue
			}
			select {
			case w.results <- apply:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (w *Worker) execute(ctx context.Context, job namedJob) (apply func()) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Panic recovered in worker job",
				zap.String("job", job.name),
				zap.Any("panic_value", r),
				zap.Stack("stack"),
			)
			apply = nil
		}
	}()
	return job.run(ctx)
}
