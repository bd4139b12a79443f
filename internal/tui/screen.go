package tui

import (
	"github.com/hylla/tasklist/internal/domain"
	"github.com/hylla/tasklist/internal/observable"
	"github.com/hylla/tasklist/internal/tasks"
)

// screenState mirrors the view-model channels. Observers write it from the
// view-model's main side, which is always inside Model.Update.
type screenState struct {
	attached bool
	detach   []func()

	loading    bool
	items      []domain.Task
	label      domain.Label
	noTasks    string
	addVisible bool
	loadError  bool
	empty      bool
	snackbar   string

	pendingNewTask bool
	pendingOpen    string
}

// attach subscribes to every view-model channel once. Attaching Items starts
// the initial load.
func (s *screenState) attach(vm *tasks.ViewModel) {
	if s.attached {
		return
	}
	s.attached = true
	s.detach = append(s.detach,
		vm.DataLoading().Observe(func(v bool) { s.loading = v }),
		vm.CurrentFilteringLabel().Observe(func(v domain.Label) { s.label = v }),
		vm.NoTasksLabel().Observe(func(v string) { s.noTasks = v }),
		vm.TasksAddViewVisible().Observe(func(v bool) { s.addVisible = v }),
		vm.IsDataLoadingError().Observe(func(v bool) { s.loadError = v }),
		vm.Empty().Observe(func(v bool) { s.empty = v }),
		vm.SnackbarText().Observe(func(ev *observable.Event[string]) {
			if ev == nil {
				return
			}
			if text, ok := ev.GetContentIfNotHandled(); ok {
				s.snackbar = text
			}
		}),
		vm.NewTaskEvent().Observe(func(ev *observable.Event[struct{}]) {
			if ev == nil {
				return
			}
			if _, ok := ev.GetContentIfNotHandled(); ok {
				s.pendingNewTask = true
			}
		}),
		vm.OpenTaskEvent().Observe(func(ev *observable.Event[string]) {
			if ev == nil {
				return
			}
			if id, ok := ev.GetContentIfNotHandled(); ok {
				s.pendingOpen = id
			}
		}),
		vm.Items().Observe(func(v []domain.Task) { s.items = v }),
	)
}

// release detaches every observer.
func (s *screenState) release() {
	for _, fn := range s.detach {
		fn()
	}
	s.detach = nil
}
