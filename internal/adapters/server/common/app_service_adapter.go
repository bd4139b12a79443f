package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hylla/tasklist/internal/app"
	"github.com/hylla/tasklist/internal/domain"
)

// AppServiceAdapter maps transport contracts onto app.Service.
type AppServiceAdapter struct {
	service *app.Service
}

var _ TaskService = (*AppServiceAdapter)(nil)

func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

func (a *AppServiceAdapter) ListTasks(ctx context.Context, in ListTasksRequest) ([]Task, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	filter, err := domain.ParseFilter(in.Filter)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", in.Filter, errors.Join(ErrInvalidRequest, err))
	}
	tasks, err := a.service.ListTasks(ctx, filter)
	if err != nil {
		return nil, mapAppError("list tasks", err)
	}
	return tasksFromDomain(tasks), nil
}

func (a *AppServiceAdapter) GetTask(ctx context.Context, id string) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	id, err := requireID(id)
	if err != nil {
		return Task{}, err
	}
	task, err := a.service.GetTask(ctx, id)
	if err != nil {
		return Task{}, mapAppError("get task", err)
	}
	return TaskFromDomain(task), nil
}

func (a *AppServiceAdapter) AddTask(ctx context.Context, in AddTaskRequest) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	task, err := a.service.CreateTask(ctx, app.CreateTaskInput{
		Title:       in.Title,
		Description: in.Description,
	})
	if err != nil {
		return Task{}, mapAppError("add task", err)
	}
	return TaskFromDomain(task), nil
}

func (a *AppServiceAdapter) UpdateTask(ctx context.Context, in UpdateTaskRequest) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	id, err := requireID(in.TaskID)
	if err != nil {
		return Task{}, err
	}
	task, err := a.service.UpdateTask(ctx, app.UpdateTaskInput{
		TaskID:      id,
		Title:       in.Title,
		Description: in.Description,
	})
	if err != nil {
		return Task{}, mapAppError("update task", err)
	}
	return TaskFromDomain(task), nil
}

func (a *AppServiceAdapter) DeleteTask(ctx context.Context, id string) error {
	if err := a.ready(); err != nil {
		return err
	}
	id, err := requireID(id)
	if err != nil {
		return err
	}
	return mapAppError("delete task", a.service.DeleteTask(ctx, id))
}

func (a *AppServiceAdapter) CompleteTask(ctx context.Context, id string) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	id, err := requireID(id)
	if err != nil {
		return Task{}, err
	}
	task, err := a.service.CompleteTask(ctx, id)
	if err != nil {
		return Task{}, mapAppError("complete task", err)
	}
	return TaskFromDomain(task), nil
}

func (a *AppServiceAdapter) ActivateTask(ctx context.Context, id string) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	id, err := requireID(id)
	if err != nil {
		return Task{}, err
	}
	task, err := a.service.ActivateTask(ctx, id)
	if err != nil {
		return Task{}, mapAppError("activate task", err)
	}
	return TaskFromDomain(task), nil
}

func (a *AppServiceAdapter) ClearCompletedTasks(ctx context.Context) (ClearCompletedResult, error) {
	if err := a.ready(); err != nil {
		return ClearCompletedResult{}, err
	}
	removed, err := a.service.ClearCompletedTasks(ctx)
	if err != nil {
		return ClearCompletedResult{}, mapAppError("clear completed tasks", err)
	}
	return ClearCompletedResult{Removed: removed}, nil
}

func (a *AppServiceAdapter) Statistics(ctx context.Context) (Statistics, error) {
	if err := a.ready(); err != nil {
		return Statistics{}, err
	}
	stats, err := a.service.Statistics(ctx)
	if err != nil {
		return Statistics{}, mapAppError("statistics", err)
	}
	return Statistics{
		Total:            stats.Total,
		Active:           stats.Active,
		Completed:        stats.Completed,
		ActivePercent:    stats.ActivePercent,
		CompletedPercent: stats.CompletedPercent,
	}, nil
}

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrServiceUnavailable)
	}
	return nil
}

func requireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("task id is required: %w", ErrInvalidRequest)
	}
	return id, nil
}

// mapAppError translates app and domain errors into transport sentinels.
func mapAppError(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrEmptyTask),
		errors.Is(err, domain.ErrInvalidFilter):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
