// Package apptest provides an in-memory task store for tests.
package apptest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hylla/tasklist/internal/app"
	"github.com/hylla/tasklist/internal/domain"
)

// ErrFetchTasks is returned while the repository is armed to fail.
var ErrFetchTasks = errors.New("fetch error")

// FakeRepository keeps tasks in insertion order, keyed by id.
type FakeRepository struct {
	mu               sync.Mutex
	order            []string
	tasks            map[string]domain.Task
	returnError      bool
	forceUpdateCalls int
	clock            func() time.Time
}

var _ app.Repository = (*FakeRepository)(nil)

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		tasks: map[string]domain.Task{},
		clock: time.Now,
	}
}

// SetReturnError arms or disarms the failure flag. It stays set until disarmed.
func (f *FakeRepository) SetReturnError(v bool) {
	f.mu.Lock()
	f.returnError = v
	f.mu.Unlock()
}

// AddTasks appends tasks. Re-adding an id replaces the stored task in place.
func (f *FakeRepository) AddTasks(tasks ...domain.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range tasks {
		f.putLocked(t)
	}
}

func (f *FakeRepository) GetTasks(_ context.Context, forceUpdate bool) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if forceUpdate {
		f.forceUpdateCalls++
	}
	if f.returnError {
		return nil, ErrFetchTasks
	}
	out := make([]domain.Task, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.tasks[id])
	}
	return out, nil
}

func (f *FakeRepository) GetTask(_ context.Context, id string) (domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.returnError {
		return domain.Task{}, ErrFetchTasks
	}
	t, ok := f.tasks[id]
	if !ok {
		return domain.Task{}, app.ErrNotFound
	}
	return t, nil
}

func (f *FakeRepository) SaveTask(_ context.Context, t domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putLocked(t)
	return nil
}

func (f *FakeRepository) CompleteTask(_ context.Context, id string) error {
	return f.setCompleted(id, true)
}

func (f *FakeRepository) ActivateTask(_ context.Context, id string) error {
	return f.setCompleted(id, false)
}

func (f *FakeRepository) ClearCompletedTasks(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.order[:0]
	for _, id := range f.order {
		if f.tasks[id].Completed {
			delete(f.tasks, id)
			continue
		}
		kept = append(kept, id)
	}
	f.order = kept
	return nil
}

func (f *FakeRepository) DeleteTask(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return app.ErrNotFound
	}
	delete(f.tasks, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *FakeRepository) DeleteAllTasks(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = nil
	f.tasks = map[string]domain.Task{}
	return nil
}

// Task returns the stored task regardless of the failure flag.
func (f *FakeRepository) Task(id string) (domain.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	return t, ok
}

func (f *FakeRepository) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}

// ForceUpdateCalls counts GetTasks calls made with forceUpdate set.
func (f *FakeRepository) ForceUpdateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forceUpdateCalls
}

func (f *FakeRepository) setCompleted(id string, completed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return app.ErrNotFound
	}
	if completed {
		t.Complete(f.clock())
	} else {
		t.Activate(f.clock())
	}
	f.tasks[id] = t
	return nil
}

func (f *FakeRepository) putLocked(t domain.Task) {
	if _, ok := f.tasks[t.ID]; !ok {
		f.order = append(f.order, t.ID)
	}
	f.tasks[t.ID] = t
}
