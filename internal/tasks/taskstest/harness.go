package taskstest

import (
	"github.com/hylla/tasklist/internal/app/apptest"
	"github.com/hylla/tasklist/internal/domain"
	"github.com/hylla/tasklist/internal/executor"
	"github.com/hylla/tasklist/internal/observable"
	"github.com/hylla/tasklist/internal/tasks"
)

// Seeded fixture tasks: one active, two completed.
var (
	Task1 = apptest.NewTask("Title1", "Description1", false)
	Task2 = apptest.NewTask("Title2", "Description2", true)
	Task3 = apptest.NewTask("Title3", "Description3", true)
)

// TB is the part of a test handle the harness uses. *testing.T and *rapid.T
// both satisfy it.
type TB interface {
	Helper()
}

// Harness is a fresh repository and ViewModel pair with recorders attached to
// the four state channels the invariants read.
type Harness struct {
	Context

	DataLoading    *observable.Recorder[bool]
	Items          *observable.Recorder[[]domain.Task]
	FilteringLabel *observable.Recorder[domain.Label]
	AddViewVisible *observable.Recorder[bool]
}

// NewHarness seeds the repository with Task1..Task3, builds the ViewModel on
// an immediate executor and attaches the recorders. When t can register
// cleanups, Close runs at the end of the test; otherwise the caller closes.
func NewHarness(t TB) *Harness {
	t.Helper()
	repo := apptest.NewFakeRepository()
	repo.AddTasks(Task1, Task2, Task3)

	vm := tasks.New(repo, tasks.WithExecutor(executor.Immediate()))

	h := &Harness{Context: Context{ViewModel: vm, Repo: repo}}
	// The Items observer activates the initial load, so DataLoading must
	// already be recording when it attaches.
	h.DataLoading = observable.Record(vm.DataLoading())
	h.Items = observable.Record(vm.Items())
	h.FilteringLabel = observable.Record(vm.CurrentFilteringLabel())
	h.AddViewVisible = observable.Record(vm.TasksAddViewVisible())

	if c, ok := t.(interface{ Cleanup(func()) }); ok {
		c.Cleanup(h.Close)
	}
	return h
}

// Close detaches every recorder and closes the ViewModel.
func (h *Harness) Close() {
	h.DataLoading.Detach()
	h.Items.Detach()
	h.FilteringLabel.Detach()
	h.AddViewVisible.Detach()
	h.ViewModel.Close()
}

// Run applies a to the harness context.
func (h *Harness) Run(a Action) {
	a.Apply(&h.Context)
}

func (h *Harness) IsAddButtonVisible() bool {
	v, _ := h.AddViewVisible.LastValue()
	return v
}

func (h *Harness) IsFilteringLabel(label domain.Label) bool {
	v, ok := h.FilteringLabel.LastValue()
	return ok && v == label
}

// HasActiveTask reports whether the last published items hold an active task.
func (h *Harness) HasActiveTask() bool {
	items, _ := h.Items.LastValue()
	for _, t := range items {
		if t.IsActive() {
			return true
		}
	}
	return false
}

func (h *Harness) HasCompletedTask() bool {
	items, _ := h.Items.LastValue()
	for _, t := range items {
		if t.Completed {
			return true
		}
	}
	return false
}

// LoadingHistory returns every DataLoading emission so far.
func (h *Harness) LoadingHistory() []bool {
	return h.DataLoading.Observed()
}

// LastItems returns the last published items.
func (h *Harness) LastItems() []domain.Task {
	items, _ := h.Items.LastValue()
	return items
}
