package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hylla/tasklist/internal/app"
	"github.com/hylla/tasklist/internal/app/apptest"
)

func newTestAdapter(t *testing.T) (*AppServiceAdapter, *apptest.FakeRepository) {
	t.Helper()
	repo := apptest.NewFakeRepository()
	next := 0
	idGen := func() string {
		next++
		return fmt.Sprintf("t%d", next)
	}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := app.NewService(repo, idGen, func() time.Time { return now })
	return NewAppServiceAdapter(svc), repo
}

func TestAppServiceAdapterTaskFlow(t *testing.T) {
	ctx := context.Background()
	adapter, _ := newTestAdapter(t)

	first, err := adapter.AddTask(ctx, AddTaskRequest{Title: "Buy milk", Description: "two litres"})
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if first.ID != "t1" || first.Completed {
		t.Fatalf("unexpected added task %#v", first)
	}
	if _, err := adapter.AddTask(ctx, AddTaskRequest{Title: "Walk dog"}); err != nil {
		t.Fatalf("AddTask(second) error = %v", err)
	}

	completed, err := adapter.CompleteTask(ctx, " t1 ")
	if err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}
	if !completed.Completed {
		t.Fatal("expected completed task")
	}

	active, err := adapter.ListTasks(ctx, ListTasksRequest{Filter: "active"})
	if err != nil {
		t.Fatalf("ListTasks(active) error = %v", err)
	}
	if len(active) != 1 || active[0].ID != "t2" {
		t.Fatalf("unexpected active tasks %#v", active)
	}

	stats, err := adapter.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.Total != 2 || stats.Completed != 1 || stats.CompletedPercent != 50 {
		t.Fatalf("unexpected stats %#v", stats)
	}

	cleared, err := adapter.ClearCompletedTasks(ctx)
	if err != nil {
		t.Fatalf("ClearCompletedTasks() error = %v", err)
	}
	if cleared.Removed != 1 {
		t.Fatalf("expected 1 removed, got %d", cleared.Removed)
	}

	reactivated, err := adapter.ActivateTask(ctx, "t2")
	if err != nil {
		t.Fatalf("ActivateTask() error = %v", err)
	}
	if reactivated.Completed {
		t.Fatal("expected active task")
	}
	got, err := adapter.GetTask(ctx, "t2")
	if err != nil || got.Title != "Walk dog" {
		t.Fatalf("GetTask() = %#v, %v", got, err)
	}
}

func TestAppServiceAdapterErrorMapping(t *testing.T) {
	ctx := context.Background()
	adapter, repo := newTestAdapter(t)

	if _, err := adapter.ListTasks(ctx, ListTasksRequest{Filter: "someday"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("ListTasks(bad filter) error = %v", err)
	}
	if _, err := adapter.AddTask(ctx, AddTaskRequest{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("AddTask(empty) error = %v", err)
	}
	if _, err := adapter.GetTask(ctx, "  "); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("GetTask(blank) error = %v", err)
	}
	if _, err := adapter.CompleteTask(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("CompleteTask(missing) error = %v", err)
	}
	if _, err := adapter.GetTask(ctx, "missing"); !errors.Is(err, ErrNotFound) || !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("GetTask(missing) error = %v", err)
	}

	repo.SetReturnError(true)
	_, err := adapter.ListTasks(ctx, ListTasksRequest{})
	if !errors.Is(err, apptest.ErrFetchTasks) {
		t.Fatalf("ListTasks(armed) error = %v", err)
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected unclassified error, got %v", err)
	}
}

func TestAppServiceAdapterUnconfigured(t *testing.T) {
	var adapter *AppServiceAdapter
	if _, err := adapter.Statistics(context.Background()); !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("Statistics() error = %v", err)
	}
}

func TestAppServiceAdapterUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	adapter, repo := newTestAdapter(t)
	if _, err := adapter.AddTask(ctx, AddTaskRequest{Title: "Buy milk"}); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}

	updated, err := adapter.UpdateTask(ctx, UpdateTaskRequest{TaskID: " t1 ", Title: "Buy oat milk", Description: "barista"})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if updated.Title != "Buy oat milk" || updated.Description != "barista" {
		t.Fatalf("unexpected updated task %#v", updated)
	}
	if _, err := adapter.UpdateTask(ctx, UpdateTaskRequest{TaskID: "t1"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for empty update, got %v", err)
	}
	if _, err := adapter.UpdateTask(ctx, UpdateTaskRequest{TaskID: "missing", Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := adapter.DeleteTask(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if repo.Len() != 0 {
		t.Fatalf("expected task removed, got %d", repo.Len())
	}
	if err := adapter.DeleteTask(ctx, "t1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := adapter.DeleteTask(ctx, " "); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for blank id, got %v", err)
	}
}
