// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"

	"github.com/hylla/tasklist/internal/domain"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrServiceUnavailable reports a missing backing service.
var ErrServiceUnavailable = errors.New("service unavailable")

// Task is the wire shape of one task.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListTasksRequest selects tasks by filter name: all, active or completed.
type ListTasksRequest struct {
	Filter string
}

type AddTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateTaskRequest replaces the title and description of one task.
type UpdateTaskRequest struct {
	TaskID      string `json:"-"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ClearCompletedResult struct {
	Removed int `json:"removed"`
}

// Statistics summarizes active and completed counts.
type Statistics struct {
	Total            int     `json:"total"`
	Active           int     `json:"active"`
	Completed        int     `json:"completed"`
	ActivePercent    float64 `json:"active_percent"`
	CompletedPercent float64 `json:"completed_percent"`
}

// TaskService is the task surface shared by HTTP and MCP adapters.
type TaskService interface {
	ListTasks(context.Context, ListTasksRequest) ([]Task, error)
	GetTask(context.Context, string) (Task, error)
	AddTask(context.Context, AddTaskRequest) (Task, error)
	UpdateTask(context.Context, UpdateTaskRequest) (Task, error)
	DeleteTask(context.Context, string) error
	CompleteTask(context.Context, string) (Task, error)
	ActivateTask(context.Context, string) (Task, error)
	ClearCompletedTasks(context.Context) (ClearCompletedResult, error)
	Statistics(context.Context) (Statistics, error)
}

// TaskFromDomain maps one domain task onto its wire shape.
func TaskFromDomain(t domain.Task) Task {
	return Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func tasksFromDomain(in []domain.Task) []Task {
	out := make([]Task, 0, len(in))
	for _, t := range in {
		out = append(out, TaskFromDomain(t))
	}
	return out
}
