package app

import (
	"context"
	"fmt"
	"time"

	"github.com/hylla/tasklist/internal/domain"
)

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service represents the task use cases shared by the CLI, server and TUI.
type Service struct {
	repo  Repository
	idGen IDGenerator
	clock Clock
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:  repo,
		idGen: idGen,
		clock: clock,
	}
}

// CreateTaskInput holds input values for create task operations.
type CreateTaskInput struct {
	Title       string
	Description string
}

// CreateTask validates and stores a new active task.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (domain.Task, error) {
	task, err := domain.NewTask(domain.TaskInput{
		ID:          s.idGen(),
		Title:       in.Title,
		Description: in.Description,
	}, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.SaveTask(ctx, task); err != nil {
		return domain.Task{}, fmt.Errorf("save task: %w", err)
	}
	return task, nil
}

// UpdateTaskInput holds input values for update task operations.
type UpdateTaskInput struct {
	TaskID      string
	Title       string
	Description string
}

// UpdateTask replaces the title and description of one task.
func (s *Service) UpdateTask(ctx context.Context, in UpdateTaskInput) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, in.TaskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.UpdateDetails(in.Title, in.Description, s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.SaveTask(ctx, task); err != nil {
		return domain.Task{}, fmt.Errorf("save task: %w", err)
	}
	return task, nil
}

// GetTask returns one task by id.
func (s *Service) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return s.repo.GetTask(ctx, id)
}

// ListTasks returns the tasks visible under filter, in store order.
func (s *Service) ListTasks(ctx context.Context, filter domain.Filter) ([]domain.Task, error) {
	if !filter.Valid() {
		return nil, domain.ErrInvalidFilter
	}
	tasks, err := s.repo.GetTasks(ctx, true)
	if err != nil {
		return nil, err
	}
	return filter.Apply(tasks), nil
}

// CompleteTask marks one task completed and returns it.
func (s *Service) CompleteTask(ctx context.Context, id string) (domain.Task, error) {
	if err := s.repo.CompleteTask(ctx, id); err != nil {
		return domain.Task{}, err
	}
	return s.repo.GetTask(ctx, id)
}

// ActivateTask marks one task active again and returns it.
func (s *Service) ActivateTask(ctx context.Context, id string) (domain.Task, error) {
	if err := s.repo.ActivateTask(ctx, id); err != nil {
		return domain.Task{}, err
	}
	return s.repo.GetTask(ctx, id)
}

// ClearCompletedTasks removes completed tasks and reports how many were removed.
func (s *Service) ClearCompletedTasks(ctx context.Context) (int, error) {
	before, err := s.repo.GetTasks(ctx, false)
	if err != nil {
		return 0, err
	}
	if err := s.repo.ClearCompletedTasks(ctx); err != nil {
		return 0, err
	}
	return len(domain.FilterCompleted.Apply(before)), nil
}

// DeleteTask removes one task.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	return s.repo.DeleteTask(ctx, id)
}

// Statistics summarizes how much of the list is done.
type Statistics struct {
	Total            int     `json:"total"`
	Active           int     `json:"active"`
	Completed        int     `json:"completed"`
	ActivePercent    float64 `json:"active_percent"`
	CompletedPercent float64 `json:"completed_percent"`
}

// Statistics computes active/completed counts and percentages.
func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	tasks, err := s.repo.GetTasks(ctx, false)
	if err != nil {
		return Statistics{}, err
	}
	return ComputeStatistics(tasks), nil
}

// ComputeStatistics is zero for an empty list.
func ComputeStatistics(tasks []domain.Task) Statistics {
	stats := Statistics{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			stats.Completed++
		} else {
			stats.Active++
		}
	}
	if stats.Total == 0 {
		return stats
	}
	stats.ActivePercent = 100 * float64(stats.Active) / float64(stats.Total)
	stats.CompletedPercent = 100 * float64(stats.Completed) / float64(stats.Total)
	return stats
}
