package tasks

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/dclone/internal/models"
	"github.com/desertthunder/dclone/internal/shared"
)

// ErrInvalidTransition is returned when a status change would break the lifecycle order.
var ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", shared.ErrInternal)

// Tracker maps task ids to progress records.
//
// One lock guards the whole map so every snapshot is internally consistent.
// Records are never removed.
type Tracker struct {
	mu    sync.RWMutex
	tasks map[string]*models.Progress
	now   func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		tasks: map[string]*models.Progress{},
		now:   time.Now,
	}
}

// Create registers a new task for sourceID in the starting state and returns its snapshot.
func (t *Tracker) Create(sourceID string) models.Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	p := &models.Progress{
		TaskID:    shared.GenerateID(),
		SourceID:  sourceID,
		Status:    models.StatusStarting,
		Errors:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.tasks[p.TaskID] = p
	return snapshot(p)
}

// Get returns a copy of the record for id.
func (t *Tracker) Get(id string) (*models.Progress, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	s := snapshot(p)
	return &s, nil
}

// List returns copies of all records, oldest first.
func (t *Tracker) List() []models.Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.Progress, 0, len(t.tasks))
	for _, p := range t.tasks {
		out = append(out, snapshot(p))
	}
	slices.SortFunc(out, func(a, b models.Progress) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.TaskID, b.TaskID)
	})
	return out
}

// SetTotal records the item count estimate.
func (t *Tracker) SetTotal(id string, total int) error {
	return t.update(id, func(p *models.Progress) error {
		p.Total = total
		return nil
	})
}

// SetStatus moves the task to status, rejecting out-of-order or post-terminal changes.
func (t *Tracker) SetStatus(id string, status models.Status) error {
	return t.update(id, func(p *models.Progress) error {
		return transition(p, status)
	})
}

// Advance counts one finished item and records its name in the same step.
func (t *Tracker) Advance(id, name string) error {
	return t.update(id, func(p *models.Progress) error {
		p.Completed++
		p.CurrentFile = name
		return nil
	})
}

// AppendError adds msg to the task's error list.
func (t *Tracker) AppendError(id, msg string) error {
	return t.update(id, func(p *models.Progress) error {
		p.Errors = append(p.Errors, msg)
		return nil
	})
}

// Complete sets the result and the completed status together.
func (t *Tracker) Complete(id string, result models.Result) error {
	return t.update(id, func(p *models.Progress) error {
		if err := transition(p, models.StatusCompleted); err != nil {
			return err
		}
		p.Result = &result
		return nil
	})
}

// Fail moves the task to failed, appending msg first when it is not empty.
func (t *Tracker) Fail(id, msg string) error {
	return t.update(id, func(p *models.Progress) error {
		if err := transition(p, models.StatusFailed); err != nil {
			return err
		}
		if msg != "" {
			p.Errors = append(p.Errors, msg)
		}
		return nil
	})
}

// Reporter returns a [Reporter] bound to task id.
func (t *Tracker) Reporter(id string) Reporter {
	return &taskReporter{tracker: t, id: id}
}

func (t *Tracker) update(id string, fn func(p *models.Progress) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	if err := fn(p); err != nil {
		return err
	}
	p.UpdatedAt = t.now()
	return nil
}

func transition(p *models.Progress, next models.Status) error {
	if !p.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, next)
	}
	p.Status = next
	return nil
}

func snapshot(p *models.Progress) models.Progress {
	s := *p
	s.Errors = slices.Clone(p.Errors)
	if s.Errors == nil {
		s.Errors = []string{}
	}
	if p.Result != nil {
		r := *p.Result
		s.Result = &r
	}
	s.Percentage = models.Percentage(p.Completed, p.Total)
	return s
}

type taskReporter struct {
	tracker *Tracker
	id      string
}

func (r *taskReporter) Advance(name string) {
	r.tracker.Advance(r.id, name)
}

func (r *taskReporter) AppendError(msg string) {
	r.tracker.AppendError(r.id, msg)
}
