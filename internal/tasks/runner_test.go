package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/dclone/internal/models"
	"github.com/desertthunder/dclone/internal/shared"
	tu "github.com/desertthunder/dclone/internal/testing"
)

func newTestRunner(t *testing.T, workers, queue int) *Runner {
	t.Helper()
	r := NewRunner(RunnerOpts{Workers: workers, QueueSize: queue, Logger: quietLogger})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r.Shutdown(ctx)
	})
	return r
}

func waitFor(t *testing.T, r *Runner, id string) *models.Progress {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := r.Wait(ctx, id)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	return p
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner Defaults", func(t *testing.T) {
		r := newTestRunner(t, 0, 0)
		if r.Tracker() == nil {
			t.Error("expected default tracker")
		}
	})

	t.Run("Start Validation", func(t *testing.T) {
		r := newTestRunner(t, 1, 1)

		if _, err := r.Start(nil, "F"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if _, err := r.Start(sampleTree(), ""); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if len(r.Tracker().List()) != 0 {
			t.Error("rejected starts must not create records")
		}
	})

	t.Run("Clones Folder To Completion", func(t *testing.T) {
		r := newTestRunner(t, 2, 4)
		store := sampleTree()

		id, err := r.Start(store, "F")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		p := waitFor(t, r, id)
		if p.Status != models.StatusCompleted {
			t.Fatalf("expected completed, got %s (%v)", p.Status, p.Errors)
		}
		if p.Total != 5 || p.Completed != 5 || p.Percentage != 100 {
			t.Errorf("unexpected counts %+v", p)
		}
		if p.Result == nil || p.Result.Name != "Copy of F" {
			t.Errorf("unexpected result %+v", p.Result)
		}
		if p.SourceID != "F" {
			t.Errorf("expected source F, got %s", p.SourceID)
		}
	})

	t.Run("Clones Single File", func(t *testing.T) {
		r := newTestRunner(t, 1, 1)

		id, err := r.Start(sampleTree(), "a")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		p := waitFor(t, r, id)
		if p.Status != models.StatusCompleted || p.Total != 1 || p.Completed != 1 {
			t.Errorf("unexpected progress %+v", p)
		}
		if p.CurrentFile != "a.txt" {
			t.Errorf("expected current file a.txt, got %s", p.CurrentFile)
		}
	})

	t.Run("Record Exists Before Job Runs", func(t *testing.T) {
		r := newTestRunner(t, 1, 2)
		store := sampleTree()
		release := make(chan struct{})
		store.BeforeCall = func(op, key string) {
			if op == "get" && key == "F" {
				<-release
			}
		}

		id, err := r.Start(store, "F")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		p, err := r.Tracker().Get(id)
		if err != nil {
			t.Fatalf("record should exist immediately: %v", err)
		}
		if p.Status != models.StatusStarting || p.Total != 0 || p.Percentage != 0 {
			t.Errorf("unexpected initial state %+v", p)
		}

		close(release)
		waitFor(t, r, id)
	})

	t.Run("Root Metadata Failure Fails Task", func(t *testing.T) {
		r := newTestRunner(t, 1, 1)
		store := sampleTree()
		store.FailOn("get", "F", permanentErr("get", "F"))

		id, _ := r.Start(store, "F")
		p := waitFor(t, r, id)

		if p.Status != models.StatusFailed {
			t.Errorf("expected failed, got %s", p.Status)
		}
		if len(p.Errors) != 1 || !strings.Contains(p.Errors[0], "F") {
			t.Errorf("expected one error naming the source, got %v", p.Errors)
		}
		if p.Result != nil {
			t.Error("failed task must not have a result")
		}
	})

	t.Run("Root Folder Creation Failure Fails Task", func(t *testing.T) {
		r := newTestRunner(t, 1, 1)
		store := sampleTree()
		store.FailOn("create", "Copy of F", permanentErr("create_folder", "Copy of F"))

		id, _ := r.Start(store, "F")
		p := waitFor(t, r, id)

		if p.Status != models.StatusFailed {
			t.Errorf("expected failed, got %s", p.Status)
		}
		if p.Total != 5 || p.Completed != 0 {
			t.Errorf("expected counted but nothing copied, got %+v", p)
		}
	})

	t.Run("Partial Failure Still Completes", func(t *testing.T) {
		r := newTestRunner(t, 1, 1)
		store := sampleTree()
		store.FailOn("copy", "b", transientErr("copy", "b"))

		id, _ := r.Start(store, "F")
		p := waitFor(t, r, id)

		if p.Status != models.StatusCompleted {
			t.Errorf("expected completed, got %s", p.Status)
		}
		if p.Completed != 4 || p.Total != 5 || p.Percentage != 80 {
			t.Errorf("unexpected counts %+v", p)
		}
		if len(p.Errors) != 1 {
			t.Errorf("expected one error, got %v", p.Errors)
		}
	})

	t.Run("Tree Growing Between Count And Clone", func(t *testing.T) {
		r := newTestRunner(t, 1, 1)
		store := sampleTree()
		var once sync.Once
		store.BeforeCall = func(op, key string) {
			if op == "create" && key == "Copy of F" {
				once.Do(func() { store.AddFile("late", "late.txt", "F", 1) })
			}
		}

		id, _ := r.Start(store, "F")
		p := waitFor(t, r, id)

		if p.Status != models.StatusCompleted {
			t.Fatalf("expected completed, got %s", p.Status)
		}
		if p.Completed != 6 || p.Total != 5 || p.Percentage <= 100 {
			t.Errorf("expected completed above total, got %+v", p)
		}
	})

	t.Run("Panic Fails Task", func(t *testing.T) {
		r := newTestRunner(t, 1, 1)
		store := sampleTree()
		store.BeforeCall = func(op, key string) {
			if op == "copy" {
				panic("kaboom")
			}
		}

		id, _ := r.Start(store, "a")
		p := waitFor(t, r, id)

		if p.Status != models.StatusFailed {
			t.Errorf("expected failed, got %s", p.Status)
		}
		if len(p.Errors) == 0 || !strings.Contains(p.Errors[len(p.Errors)-1], "kaboom") {
			t.Errorf("expected panic message in errors, got %v", p.Errors)
		}
	})

	t.Run("Full Queue Rejects And Fails Record", func(t *testing.T) {
		r := newTestRunner(t, 1, 1)
		store := sampleTree()
		release := make(chan struct{})
		store.BeforeCall = func(op, key string) {
			if op == "get" {
				<-release
			}
		}

		var accepted, rejected []string
		for range 50 {
			id, err := r.Start(store, "a")
			if err != nil {
				if !errors.Is(err, shared.ErrServiceUnavailable) {
					t.Fatalf("unexpected error: %v", err)
				}
				rejected = append(rejected, id)
				continue
			}
			accepted = append(accepted, id)
		}

		if len(rejected) == 0 {
			t.Fatal("expected the bounded queue to reject some tasks")
		}

		for _, id := range rejected {
			p, err := r.Tracker().Get(id)
			if err != nil {
				t.Fatalf("rejected task should still have a record: %v", err)
			}
			if p.Status != models.StatusFailed || len(p.Errors) != 1 {
				t.Errorf("expected failed record with reason, got %+v", p)
			}
			if _, err := r.Wait(context.Background(), id); err != nil {
				t.Errorf("wait on rejected task should return immediately: %v", err)
			}
		}

		close(release)
		for _, id := range accepted {
			if p := waitFor(t, r, id); p.Status != models.StatusCompleted {
				t.Errorf("accepted task %s ended %s", id, p.Status)
			}
		}
	})

	t.Run("Wait Unknown Task", func(t *testing.T) {
		r := newTestRunner(t, 1, 1)
		if _, err := r.Wait(context.Background(), "missing"); !errors.Is(err, shared.ErrTaskNotFound) {
			t.Errorf("expected ErrTaskNotFound, got %v", err)
		}
	})

	t.Run("Wait Times Out", func(t *testing.T) {
		r := newTestRunner(t, 1, 1)
		store := sampleTree()
		release := make(chan struct{})
		defer close(release)
		store.BeforeCall = func(op, key string) { <-release }

		id, _ := r.Start(store, "a")

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if _, err := r.Wait(ctx, id); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("Start After Shutdown", func(t *testing.T) {
		r := NewRunner(RunnerOpts{Workers: 1, QueueSize: 1, Logger: quietLogger})
		if err := r.Shutdown(context.Background()); err != nil {
			t.Fatalf("shutdown failed: %v", err)
		}
		if _, err := r.Start(sampleTree(), "a"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
