// Package tasks holds the task-list view-model: the state behind the list
// screen, published as observable channels.
package tasks

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/hylla/tasklist/internal/app"
	"github.com/hylla/tasklist/internal/domain"
	"github.com/hylla/tasklist/internal/executor"
	"github.com/hylla/tasklist/internal/observable"
)

// Option configures a ViewModel.
type Option func(*ViewModel)

// WithExecutor overrides executor.Default.
func WithExecutor(ex executor.Executor) Option {
	return func(vm *ViewModel) {
		if ex != nil {
			vm.exec = ex
		}
	}
}

// WithSavedState restores and persists the filter through state.
func WithSavedState(state *SavedState) Option {
	return func(vm *ViewModel) {
		if state != nil {
			vm.state = state
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(vm *ViewModel) {
		if logger != nil {
			vm.logger = logger
		}
	}
}

// ViewModel owns the list screen state. Operations are called from the main
// side; repository work runs through the executor and its results are applied
// back on the main side.
type ViewModel struct {
	repo   app.Repository
	exec   executor.Executor
	state  *SavedState
	logger *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	dataLoading      *observable.Value[bool]
	items            *observable.Value[[]domain.Task]
	filterLabel      *observable.Value[domain.Label]
	noTasksLabel     *observable.Value[string]
	addViewVisible   *observable.Value[bool]
	dataLoadingError *observable.Value[bool]
	empty            *observable.Value[bool]
	snackbar         *observable.Value[*observable.Event[string]]
	newTaskEvent     *observable.Value[*observable.Event[struct{}]]
	openTaskEvent    *observable.Value[*observable.Event[string]]

	mu         sync.Mutex
	filter     domain.Filter
	cache      []domain.Task
	loaded     bool
	inFlight   int
	generation int
	activated  sync.Once
}

// New builds a ViewModel over repo. The first observer attached to Items
// triggers the initial forced load.
func New(repo app.Repository, opts ...Option) *ViewModel {
	ctx, cancel := context.WithCancel(context.Background())
	vm := &ViewModel{
		repo:             repo,
		exec:             executor.Default(),
		state:            NewSavedState(),
		logger:           log.New(io.Discard),
		ctx:              ctx,
		cancel:           cancel,
		dataLoading:      observable.New[bool](),
		items:            observable.New[[]domain.Task](),
		filterLabel:      observable.New[domain.Label](),
		noTasksLabel:     observable.New[string](),
		addViewVisible:   observable.New[bool](),
		dataLoadingError: observable.New[bool](),
		empty:            observable.New[bool](),
		snackbar:         observable.New[*observable.Event[string]](),
		newTaskEvent:     observable.New[*observable.Event[struct{}]](),
		openTaskEvent:    observable.New[*observable.Event[string]](),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(vm)
		}
	}
	vm.items.OnActive(func() {
		vm.activated.Do(func() { vm.LoadTasks(true) })
	})

	initial, ok := vm.state.Filter()
	if !ok || !initial.Valid() {
		initial = domain.FilterAll
	}
	vm.SetFiltering(initial)
	return vm
}

func (vm *ViewModel) DataLoading() *observable.Value[bool] {
	return vm.dataLoading
}

func (vm *ViewModel) Items() *observable.Value[[]domain.Task] {
	return vm.items
}

func (vm *ViewModel) CurrentFilteringLabel() *observable.Value[domain.Label] {
	return vm.filterLabel
}

func (vm *ViewModel) NoTasksLabel() *observable.Value[string] {
	return vm.noTasksLabel
}

func (vm *ViewModel) TasksAddViewVisible() *observable.Value[bool] {
	return vm.addViewVisible
}

func (vm *ViewModel) IsDataLoadingError() *observable.Value[bool] {
	return vm.dataLoadingError
}

func (vm *ViewModel) Empty() *observable.Value[bool] {
	return vm.empty
}

func (vm *ViewModel) SnackbarText() *observable.Value[*observable.Event[string]] {
	return vm.snackbar
}

func (vm *ViewModel) NewTaskEvent() *observable.Value[*observable.Event[struct{}]] {
	return vm.newTaskEvent
}

func (vm *ViewModel) OpenTaskEvent() *observable.Value[*observable.Event[string]] {
	return vm.openTaskEvent
}

// Filter returns the current filter.
func (vm *ViewModel) Filter() domain.Filter {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.filter
}

// SetFiltering switches the filter, updates the label channels and re-filters
// already loaded tasks. Only the unfiltered list offers adding a task.
func (vm *ViewModel) SetFiltering(f domain.Filter) {
	if !f.Valid() {
		vm.logger.Warn("ignoring invalid filter", "filter", int(f))
		return
	}
	vm.mu.Lock()
	vm.filter = f
	cache, loaded := vm.cache, vm.loaded
	vm.mu.Unlock()

	vm.state.SetFilter(f)
	vm.filterLabel.Set(f.Label())
	vm.noTasksLabel.Set(f.NoTasksText())
	vm.addViewVisible.Set(f == domain.FilterAll)
	if loaded {
		vm.publishItems(f.Apply(cache))
	}
}

// LoadTasks flips DataLoading on, fetches, publishes the filtered result and
// flips DataLoading off. On failure Items is emptied and IsDataLoadingError set.
func (vm *ViewModel) LoadTasks(forceUpdate bool) {
	vm.mu.Lock()
	vm.inFlight++
	vm.generation++
	gen := vm.generation
	vm.mu.Unlock()

	vm.dataLoading.Set(true)
	vm.logger.Debug("loading tasks", "force_update", forceUpdate)
	vm.exec.ExecuteOnIO(func() {
		tasks, err := vm.repo.GetTasks(vm.ctx, forceUpdate)
		vm.exec.PostToMain(func() {
			vm.finishLoad(gen, tasks, err)
		})
	})
}

// Refresh forces a reload.
func (vm *ViewModel) Refresh() {
	vm.LoadTasks(true)
}

// AddNewTask asks the screen to open the add-task form.
func (vm *ViewModel) AddNewTask() {
	vm.newTaskEvent.Set(observable.NewEvent(struct{}{}))
}

// OpenTask asks the screen to show one task.
func (vm *ViewModel) OpenTask(taskID string) {
	vm.openTaskEvent.Set(observable.NewEvent(taskID))
}

// CompleteTask marks task completed or active again.
func (vm *ViewModel) CompleteTask(task domain.Task, isComplete bool) {
	vm.exec.ExecuteOnIO(func() {
		var err error
		if isComplete {
			err = vm.repo.CompleteTask(vm.ctx, task.ID)
		} else {
			err = vm.repo.ActivateTask(vm.ctx, task.ID)
		}
		vm.exec.PostToMain(func() {
			if err != nil {
				vm.logger.Warn("task update failed", "task_id", task.ID, "complete", isComplete, "err", err)
				vm.showSnackbar(msgTaskUpdateFailed)
				return
			}
			if isComplete {
				vm.showSnackbar(msgTaskCompleted)
			} else {
				vm.showSnackbar(msgTaskActivated)
			}
			vm.refreshQuietly()
		})
	})
}

// ClearCompletedTasks removes every completed task from the repository.
func (vm *ViewModel) ClearCompletedTasks() {
	vm.exec.ExecuteOnIO(func() {
		err := vm.repo.ClearCompletedTasks(vm.ctx)
		vm.exec.PostToMain(func() {
			if err != nil {
				vm.logger.Warn("clear completed failed", "err", err)
				vm.showSnackbar(msgClearFailed)
				return
			}
			vm.showSnackbar(msgCompletedCleared)
			vm.refreshQuietly()
		})
	})
}

// ShowEditResultMessage shows the snackbar matching an add/edit outcome.
// Unknown results are ignored.
func (vm *ViewModel) ShowEditResultMessage(result EditResult) {
	if msg, ok := result.message(); ok {
		vm.showSnackbar(msg)
	}
}

// Close cancels repository calls still running.
func (vm *ViewModel) Close() {
	vm.cancel()
}

func (vm *ViewModel) finishLoad(gen int, tasks []domain.Task, err error) {
	vm.mu.Lock()
	vm.inFlight--
	stale := gen != vm.generation
	idle := vm.inFlight == 0
	filter := vm.filter
	if err == nil && !stale {
		vm.cache = append([]domain.Task(nil), tasks...)
		vm.loaded = true
	}
	if err != nil && !stale {
		vm.cache = nil
		vm.loaded = false
	}
	vm.mu.Unlock()

	switch {
	case stale:
		vm.logger.Debug("dropping stale load", "generation", gen)
	case err != nil:
		vm.logger.Warn("loading tasks failed", "err", err)
		vm.publishItems([]domain.Task{})
		vm.dataLoadingError.Set(true)
		vm.showSnackbar(msgLoadingTasksError)
	default:
		vm.publishItems(filter.Apply(tasks))
		vm.dataLoadingError.Set(false)
	}
	if idle {
		vm.dataLoading.Set(false)
	}
}

// refreshQuietly re-reads the repository after a mutation without touching
// DataLoading. Nothing happens until a load has succeeded once.
func (vm *ViewModel) refreshQuietly() {
	vm.mu.Lock()
	loaded := vm.loaded
	gen := vm.generation
	vm.mu.Unlock()
	if !loaded {
		return
	}
	vm.exec.ExecuteOnIO(func() {
		tasks, err := vm.repo.GetTasks(vm.ctx, false)
		vm.exec.PostToMain(func() {
			if err != nil {
				vm.logger.Warn("refresh after mutation failed", "err", err)
				return
			}
			vm.mu.Lock()
			if gen != vm.generation {
				vm.mu.Unlock()
				return
			}
			vm.cache = append([]domain.Task(nil), tasks...)
			filter := vm.filter
			vm.mu.Unlock()
			vm.publishItems(filter.Apply(tasks))
		})
	})
}

func (vm *ViewModel) publishItems(items []domain.Task) {
	vm.items.Set(items)
	vm.empty.Set(len(items) == 0)
}

func (vm *ViewModel) showSnackbar(text string) {
	vm.snackbar.Set(observable.NewEvent(text))
}
