package app

import (
	"context"

	"github.com/hylla/tasklist/internal/domain"
)

// Repository represents the task store used by this package.
type Repository interface {
	// GetTasks returns every task in insertion order. forceUpdate asks caching
	// stores to bypass what they hold.
	GetTasks(ctx context.Context, forceUpdate bool) ([]domain.Task, error)
	GetTask(context.Context, string) (domain.Task, error)
	SaveTask(context.Context, domain.Task) error
	CompleteTask(context.Context, string) error
	ActivateTask(context.Context, string) error
	ClearCompletedTasks(context.Context) error
	DeleteTask(context.Context, string) error
	DeleteAllTasks(context.Context) error
}
