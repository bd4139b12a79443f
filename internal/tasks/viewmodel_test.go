package tasks_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/hylla/tasklist/internal/app/apptest"
	"github.com/hylla/tasklist/internal/domain"
	"github.com/hylla/tasklist/internal/executor"
	"github.com/hylla/tasklist/internal/executor/executortest"
	"github.com/hylla/tasklist/internal/observable"
	"github.com/hylla/tasklist/internal/tasks"
	"github.com/hylla/tasklist/internal/tasks/taskstest"
)

// lastSnackbar consumes the newest snackbar event.
func lastSnackbar(t *testing.T, vm *tasks.ViewModel) string {
	t.Helper()
	ev, ok := vm.SnackbarText().Get()
	if !ok || ev == nil {
		t.Fatal("expected a snackbar event")
	}
	text, ok := ev.GetContentIfNotHandled()
	if !ok {
		t.Fatal("expected snackbar event to be unhandled")
	}
	return text
}

func TestNewDoesNotLoadUntilItemsObserved(t *testing.T) {
	repo := apptest.NewFakeRepository()
	repo.AddTasks(taskstest.Task1)
	vm := tasks.New(repo, tasks.WithExecutor(executor.Immediate()))
	defer vm.Close()

	if repo.ForceUpdateCalls() != 0 {
		t.Fatalf("expected no load before observation, got %d", repo.ForceUpdateCalls())
	}
	if _, ok := vm.DataLoading().Get(); ok {
		t.Fatal("expected DataLoading unset before observation")
	}

	items := observable.Record(vm.Items())
	defer items.Detach()
	if repo.ForceUpdateCalls() != 1 {
		t.Fatalf("expected one forced load on activation, got %d", repo.ForceUpdateCalls())
	}

	// A second observer does not reload.
	again := observable.Record(vm.Items())
	defer again.Detach()
	if repo.ForceUpdateCalls() != 1 {
		t.Fatalf("expected activation load only once, got %d", repo.ForceUpdateCalls())
	}
	if got := again.MustLast(); len(got) != 1 {
		t.Fatalf("expected replayed items, got %#v", got)
	}
}

func TestSetFilteringUpdatesLabelsAndItems(t *testing.T) {
	h := taskstest.NewHarness(t)
	vm := h.ViewModel

	cases := []struct {
		filter  domain.Filter
		label   domain.Label
		noTasks string
		add     bool
		count   int
	}{
		{domain.FilterActive, domain.LabelActive, "You have no active tasks!", false, 1},
		{domain.FilterCompleted, domain.LabelCompleted, "You have no completed tasks!", false, 2},
		{domain.FilterAll, domain.LabelAll, "You have no tasks!", true, 3},
	}
	for _, tc := range cases {
		vm.SetFiltering(tc.filter)
		if !h.IsFilteringLabel(tc.label) {
			t.Fatalf("%v: expected label %v, got %v", tc.filter, tc.label, h.FilteringLabel.Observed())
		}
		if got, _ := vm.NoTasksLabel().Get(); got != tc.noTasks {
			t.Fatalf("%v: no-tasks label = %q, want %q", tc.filter, got, tc.noTasks)
		}
		if h.IsAddButtonVisible() != tc.add {
			t.Fatalf("%v: add visible = %t, want %t", tc.filter, h.IsAddButtonVisible(), tc.add)
		}
		if got := len(h.LastItems()); got != tc.count {
			t.Fatalf("%v: expected %d items after re-filter, got %d", tc.filter, tc.count, got)
		}
		if vm.Filter() != tc.filter {
			t.Fatalf("Filter() = %v, want %v", vm.Filter(), tc.filter)
		}
	}
}

func TestSetFilteringIgnoresInvalidFilter(t *testing.T) {
	h := taskstest.NewHarness(t)
	before := len(h.FilteringLabel.Observed())
	h.ViewModel.SetFiltering(domain.Filter(99))

	if len(h.FilteringLabel.Observed()) != before {
		t.Fatalf("expected no label emission, got %v", h.FilteringLabel.Observed())
	}
	if h.ViewModel.Filter() != domain.FilterAll {
		t.Fatalf("expected filter to stay all, got %v", h.ViewModel.Filter())
	}
}

func TestSavedStateRestoresFilter(t *testing.T) {
	state := tasks.NewSavedState()
	repo := apptest.NewFakeRepository()

	first := tasks.New(repo, tasks.WithExecutor(executor.Immediate()), tasks.WithSavedState(state))
	first.SetFiltering(domain.FilterCompleted)
	first.Close()

	if f, ok := state.Filter(); !ok || f != domain.FilterCompleted {
		t.Fatalf("expected saved completed filter, got %v %t", f, ok)
	}

	second := tasks.New(repo, tasks.WithExecutor(executor.Immediate()), tasks.WithSavedState(state))
	defer second.Close()
	if second.Filter() != domain.FilterCompleted {
		t.Fatalf("expected restored completed filter, got %v", second.Filter())
	}
	if label, _ := second.CurrentFilteringLabel().Get(); label != domain.LabelCompleted {
		t.Fatalf("expected restored label, got %v", label)
	}
	if visible, _ := second.TasksAddViewVisible().Get(); visible {
		t.Fatal("expected add view hidden for restored completed filter")
	}
}

func TestEmptyTracksPublishedItems(t *testing.T) {
	h := taskstest.NewHarness(t)
	if empty, _ := h.ViewModel.Empty().Get(); empty {
		t.Fatal("expected non-empty list")
	}
	h.Repo.DeleteAllTasks(context.Background())
	h.Run(taskstest.LoadAll)
	if empty, _ := h.ViewModel.Empty().Get(); !empty {
		t.Fatal("expected empty list after deleting everything")
	}
}

func TestLoadErrorShowsSnackbar(t *testing.T) {
	h := taskstest.NewHarness(t)
	h.Run(taskstest.LoadError)
	if got := lastSnackbar(t, h.ViewModel); got != "Error while loading tasks" {
		t.Fatalf("snackbar = %q", got)
	}
}

func TestShowEditResultMessage(t *testing.T) {
	cases := []struct {
		result tasks.EditResult
		want   string
	}{
		{tasks.EditResultOK, "Task saved"},
		{tasks.AddEditResultOK, "Task added"},
		{tasks.DeleteResultOK, "Task was deleted"},
	}
	for _, tc := range cases {
		h := taskstest.NewHarness(t)
		h.ViewModel.ShowEditResultMessage(tc.result)
		if got := lastSnackbar(t, h.ViewModel); got != tc.want {
			t.Fatalf("ShowEditResultMessage(%d) = %q, want %q", tc.result, got, tc.want)
		}
	}

	h := taskstest.NewHarness(t)
	h.ViewModel.ShowEditResultMessage(tasks.EditResult(0))
	if _, ok := h.ViewModel.SnackbarText().Get(); ok {
		t.Fatal("expected no snackbar for an unknown result")
	}
}

func TestCompleteAndActivateShowSnackbarAndRefresh(t *testing.T) {
	h := taskstest.NewHarness(t)
	vm := h.ViewModel

	vm.CompleteTask(taskstest.Task1, true)
	if got := lastSnackbar(t, vm); got != "Task marked complete" {
		t.Fatalf("snackbar = %q", got)
	}
	if h.HasActiveTask() {
		t.Fatalf("expected refreshed items without active tasks, got %#v", h.LastItems())
	}

	vm.CompleteTask(taskstest.Task2, false)
	if got := lastSnackbar(t, vm); got != "Task marked active" {
		t.Fatalf("snackbar = %q", got)
	}
	stored, _ := h.Repo.Task(taskstest.Task2.ID)
	if stored.Completed {
		t.Fatal("expected Task2 active in the repository")
	}
	if history := h.LoadingHistory(); !slices.Equal(history, []bool{true, false}) {
		t.Fatalf("mutations must not toggle loading, got %v", history)
	}
}

func TestCompleteUnknownTaskReportsFailure(t *testing.T) {
	h := taskstest.NewHarness(t)
	h.ViewModel.CompleteTask(domain.Task{ID: "missing"}, true)
	if got := lastSnackbar(t, h.ViewModel); got != "Could not update task" {
		t.Fatalf("snackbar = %q", got)
	}
}

func TestClearCompletedTasksRefreshesItems(t *testing.T) {
	h := taskstest.NewHarness(t)
	h.ViewModel.ClearCompletedTasks()

	if got := lastSnackbar(t, h.ViewModel); got != "Completed tasks cleared" {
		t.Fatalf("snackbar = %q", got)
	}
	if h.HasCompletedTask() {
		t.Fatalf("expected completed tasks gone, got %#v", h.LastItems())
	}
	if h.Repo.Len() != 1 {
		t.Fatalf("expected one task left in the repository, got %d", h.Repo.Len())
	}
}

func TestNavigationEvents(t *testing.T) {
	h := taskstest.NewHarness(t)
	h.Run(taskstest.ClickOnFab)
	ev, ok := h.ViewModel.NewTaskEvent().Get()
	if !ok {
		t.Fatal("expected new task event")
	}
	if _, ok := ev.GetContentIfNotHandled(); !ok {
		t.Fatal("expected unhandled new task event")
	}
	if _, ok := ev.GetContentIfNotHandled(); ok {
		t.Fatal("expected new task event to be consumed once")
	}

	h.Run(taskstest.ClickOnOpenTask)
	open, ok := h.ViewModel.OpenTaskEvent().Get()
	if !ok {
		t.Fatal("expected open task event")
	}
	if id, ok := open.GetContentIfNotHandled(); !ok || id != "42" {
		t.Fatalf("open task event = %q, %t", id, ok)
	}
}

func TestDefaultExecutorDelegate(t *testing.T) {
	executortest.UseImmediate(t)

	repo := apptest.NewFakeRepository()
	repo.AddTasks(taskstest.Task1, taskstest.Task2)
	vm := tasks.New(repo)
	defer vm.Close()

	items := observable.Record(vm.Items())
	defer items.Detach()
	if got := len(items.MustLast()); got != 2 {
		t.Fatalf("expected synchronous load of 2 items, got %d", got)
	}
}

func TestLoopExecutorDeliversOnMainSide(t *testing.T) {
	loop := executor.NewLoop(executor.LoopOptions{})
	defer loop.Close()

	repo := apptest.NewFakeRepository()
	repo.AddTasks(taskstest.Task1, taskstest.Task2, taskstest.Task3)
	vm := tasks.New(repo, tasks.WithExecutor(loop))
	defer vm.Close()

	loading := observable.Record(vm.DataLoading())
	items := observable.Record(vm.Items())
	defer loading.Detach()
	defer items.Detach()

	if items.Len() != 0 {
		t.Fatal("expected no items before the main side runs")
	}
	deadline := time.After(2 * time.Second)
	for items.Len() == 0 {
		select {
		case fn := <-loop.Main():
			fn()
		case <-deadline:
			t.Fatal("timed out waiting for the load to post back")
		}
	}
	if got := len(items.MustLast()); got != 3 {
		t.Fatalf("expected 3 items, got %d", got)
	}
	if !slices.Equal(loading.Observed(), []bool{true, false}) {
		t.Fatalf("loading history = %v", loading.Observed())
	}
}

func TestCloseCancelsRepositoryContext(t *testing.T) {
	repo := &blockingRepository{FakeRepository: apptest.NewFakeRepository(), seen: make(chan error, 1)}
	vm := tasks.New(repo, tasks.WithExecutor(executor.Immediate()))
	vm.Close()
	vm.LoadTasks(true)

	if err := <-repo.seen; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled context, got %v", err)
	}
}

// blockingRepository reports the context error seen by GetTasks.
type blockingRepository struct {
	*apptest.FakeRepository
	seen chan error
}

func (r *blockingRepository) GetTasks(ctx context.Context, force bool) ([]domain.Task, error) {
	r.seen <- ctx.Err()
	return r.FakeRepository.GetTasks(ctx, force)
}

func TestOverlappingLoadsDropStaleResult(t *testing.T) {
	loop := executor.NewLoop(executor.LoopOptions{})
	defer loop.Close()

	repo := newGatedRepository(taskstest.Task1)
	vm := tasks.New(repo, tasks.WithExecutor(loop))
	defer vm.Close()

	loading := observable.Record(vm.DataLoading())
	items := observable.Record(vm.Items())
	defer loading.Detach()
	defer items.Detach()

	first := repo.next(t)
	repo.AddTasks(taskstest.Task2)
	vm.LoadTasks(true)
	second := repo.next(t)

	close(second.release)
	runNextOnMain(t, loop)
	if items.Len() != 1 || len(items.MustLast()) != 2 {
		t.Fatalf("expected the newer load published, got %v", items.Observed())
	}
	if !slices.Equal(loading.Observed(), []bool{true, true}) {
		t.Fatalf("loading must stay on while a load is in flight, got %v", loading.Observed())
	}

	close(first.release)
	runNextOnMain(t, loop)
	if items.Len() != 1 {
		t.Fatalf("expected stale load dropped, got %v", items.Observed())
	}
	if !slices.Equal(loading.Observed(), []bool{true, true, false}) {
		t.Fatalf("loading history = %v", loading.Observed())
	}
}

func TestQuietRefreshDroppedByNewerLoad(t *testing.T) {
	loop := executor.NewLoop(executor.LoopOptions{})
	defer loop.Close()

	repo := newGatedRepository(taskstest.Task1)
	vm := tasks.New(repo, tasks.WithExecutor(loop))
	defer vm.Close()

	loading := observable.Record(vm.DataLoading())
	items := observable.Record(vm.Items())
	defer loading.Detach()
	defer items.Detach()

	close(repo.next(t).release)
	runNextOnMain(t, loop)
	if items.Len() != 1 {
		t.Fatalf("expected initial load published, got %v", items.Observed())
	}

	vm.CompleteTask(taskstest.Task1, true)
	runNextOnMain(t, loop)
	quiet := repo.next(t)
	vm.LoadTasks(true)
	forced := repo.next(t)

	close(quiet.release)
	runNextOnMain(t, loop)
	if items.Len() != 1 {
		t.Fatalf("expected quiet refresh dropped after a newer load, got %v", items.Observed())
	}

	close(forced.release)
	runNextOnMain(t, loop)
	if items.Len() != 2 {
		t.Fatalf("expected forced load published, got %v", items.Observed())
	}
	if last := items.MustLast(); len(last) != 1 || !last[0].Completed {
		t.Fatalf("expected completed task, got %v", last)
	}
	if !slices.Equal(loading.Observed(), []bool{true, false, true, false}) {
		t.Fatalf("loading history = %v", loading.Observed())
	}
}

// gatedRepository parks every GetTasks call until the test releases it.
type gatedRepository struct {
	*apptest.FakeRepository
	calls chan gatedCall
}

type gatedCall struct {
	release chan struct{}
}

func newGatedRepository(seed ...domain.Task) *gatedRepository {
	repo := &gatedRepository{FakeRepository: apptest.NewFakeRepository(), calls: make(chan gatedCall)}
	repo.AddTasks(seed...)
	return repo
}

func (r *gatedRepository) GetTasks(ctx context.Context, force bool) ([]domain.Task, error) {
	tasks, err := r.FakeRepository.GetTasks(ctx, force)
	call := gatedCall{release: make(chan struct{})}
	r.calls <- call
	<-call.release
	return tasks, err
}

func (r *gatedRepository) next(t *testing.T) gatedCall {
	t.Helper()
	select {
	case call := <-r.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for GetTasks")
		return gatedCall{}
	}
}

func runNextOnMain(t *testing.T, loop *executor.Loop) {
	t.Helper()
	select {
	case fn := <-loop.Main():
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a main continuation")
	}
}
