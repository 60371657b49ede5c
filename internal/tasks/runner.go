package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/dclone/internal/metrics"
	"github.com/desertthunder/dclone/internal/models"
	"github.com/desertthunder/dclone/internal/services"
	"github.com/desertthunder/dclone/internal/shared"
)

// RunnerOpts configures a [Runner].
type RunnerOpts struct {
	Tracker    *Tracker
	Workers    int
	QueueSize  int
	NamePrefix string
	Logger     *log.Logger
	Context    context.Context // base context for every task; never a request context
}

// Runner runs clone tasks on a bounded worker pool and drives their lifecycle in a [Tracker].
type Runner struct {
	ctx     context.Context
	tracker *Tracker
	pool    pond.Pool
	prefix  string
	logger  *log.Logger

	mu   sync.Mutex
	done map[string]chan struct{}
}

// NewRunner creates a Runner and starts its pool.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Tracker == nil {
		opts.Tracker = NewTracker()
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	return &Runner{
		ctx:     opts.Context,
		tracker: opts.Tracker,
		pool: pond.NewPool(opts.Workers,
			pond.WithContext(opts.Context),
			pond.WithQueueSize(opts.QueueSize),
			pond.WithNonBlocking(true),
		),
		prefix: opts.NamePrefix,
		logger: opts.Logger,
		done:   map[string]chan struct{}{},
	}
}

// Tracker returns the tracker this runner writes to.
func (r *Runner) Tracker() *Tracker {
	return r.tracker
}

// Start registers a clone of sourceID and queues it. The returned id is readable immediately.
//
// A nil store means the caller holds no credential. When the queue is full the record is
// failed and [shared.ErrServiceUnavailable] is returned with the id.
func (r *Runner) Start(store services.RemoteStore, sourceID string) (string, error) {
	if store == nil {
		return "", shared.ErrNotAuthenticated
	}
	if sourceID == "" {
		return "", fmt.Errorf("%w: file_id is required", shared.ErrInvalidArgument)
	}
	if r.pool.Stopped() {
		return "", fmt.Errorf("%w: runner is shutting down", shared.ErrServiceUnavailable)
	}

	task := r.tracker.Create(sourceID)
	id := task.TaskID
	done := make(chan struct{})

	r.mu.Lock()
	r.done[id] = done
	r.mu.Unlock()

	logger := shared.WithLogger(r.logger, "task", id)

	if _, ok := r.pool.TrySubmit(func() { r.run(store, id, sourceID, done, logger) }); !ok {
		close(done)
		r.tracker.Fail(id, "clone queue is full, try again later")
		metrics.RecordTaskRejected()
		logger.Warn("clone rejected", "source", sourceID)
		return id, fmt.Errorf("%w: clone queue is full", shared.ErrServiceUnavailable)
	}

	metrics.RecordTaskStarted()
	logger.Info("clone queued", "source", sourceID)
	return id, nil
}

// Wait blocks until task id reaches a terminal state or ctx is done.
func (r *Runner) Wait(ctx context.Context, id string) (*models.Progress, error) {
	r.mu.Lock()
	done, ok := r.done[id]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}

	select {
	case <-done:
		return r.tracker.Get(id)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", shared.ErrTimeout, ctx.Err())
	}
}

// Shutdown stops accepting tasks and waits for queued and running ones until ctx is done.
func (r *Runner) Shutdown(ctx context.Context) error {
	stopped := r.pool.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run executes one task: fetch the root, count, then clone.
func (r *Runner) run(store services.RemoteStore, id, sourceID string, done chan struct{}, logger *log.Logger) {
	start := time.Now()
	defer close(done)
	defer func() {
		if p, err := r.tracker.Get(id); err == nil {
			metrics.RecordTaskFinished(string(p.Status), time.Since(start))
			logger.Info("clone finished", "status", p.Status, "completed", p.Completed, "total", p.Total, "errors", len(p.Errors))
		}
	}()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("clone panicked", "panic", rec)
			r.tracker.Fail(id, fmt.Sprintf("internal error: %v", rec))
		}
	}()

	root, err := store.GetMetadata(r.ctx, sourceID)
	if err != nil {
		r.tracker.Fail(id, fmt.Sprintf("Error fetching source %s: %v", sourceID, err))
		return
	}

	cloner := NewCloner(store, ClonerOpts{NamePrefix: r.prefix, Logger: logger})
	reporter := r.tracker.Reporter(id)

	var node *models.Node
	if root.IsFolder() {
		total := NewCounter(store, logger).CountFolder(r.ctx, root.ID)
		r.tracker.SetTotal(id, total)
		r.tracker.SetStatus(id, models.StatusCloning)
		node, err = cloner.CloneFolder(r.ctx, root.ID, "", reporter)
	} else {
		r.tracker.SetTotal(id, 1)
		r.tracker.SetStatus(id, models.StatusCloning)
		node, err = cloner.CloneFile(r.ctx, root.ID, "", reporter)
	}

	if err != nil {
		r.tracker.Fail(id, "")
		return
	}
	r.tracker.Complete(id, models.Result{ID: node.ID, Name: node.Name})
}
