package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/tasklist/internal/domain"
)

// SnapshotVersion identifies the export format written by ExportSnapshot.
const SnapshotVersion = "tasklist.snapshot.v1"

// Snapshot is a portable copy of the whole task list.
type Snapshot struct {
	Version    string         `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	Tasks      []SnapshotTask `json:"tasks"`
}

// SnapshotTask is one exported task in store order.
type SnapshotTask struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ExportSnapshot copies every task, completed ones included.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	tasks, err := s.repo.GetTasks(ctx, true)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Tasks:      make([]SnapshotTask, 0, len(tasks)),
	}
	for _, task := range tasks {
		snap.Tasks = append(snap.Tasks, snapshotTaskFromDomain(task))
	}
	return snap, nil
}

// ImportSnapshot upserts every task in snap. Existing tasks with the same id
// are overwritten; tasks missing from snap are left alone.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) (int, error) {
	if err := snap.Validate(); err != nil {
		return 0, err
	}
	return s.saveSnapshotTasks(ctx, snap)
}

// ReplaceWithSnapshot deletes every stored task, then writes the tasks in snap.
// Nothing is deleted when snap fails validation.
func (s *Service) ReplaceWithSnapshot(ctx context.Context, snap Snapshot) (int, error) {
	if err := snap.Validate(); err != nil {
		return 0, err
	}
	if err := s.repo.DeleteAllTasks(ctx); err != nil {
		return 0, fmt.Errorf("delete existing tasks: %w", err)
	}
	return s.saveSnapshotTasks(ctx, snap)
}

func (s *Service) saveSnapshotTasks(ctx context.Context, snap Snapshot) (int, error) {
	for i, task := range snap.Tasks {
		if err := s.repo.SaveTask(ctx, task.toDomain()); err != nil {
			return i, fmt.Errorf("import task %q: %w", task.ID, err)
		}
	}
	return len(snap.Tasks), nil
}

// Validate reports the first malformed entry.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %q", s.Version)
	}
	seen := make(map[string]struct{}, len(s.Tasks))
	for i, task := range s.Tasks {
		id := strings.TrimSpace(task.ID)
		if id == "" {
			return fmt.Errorf("tasks[%d].id is required: %w", i, domain.ErrInvalidID)
		}
		if task.toDomain().IsEmpty() {
			return fmt.Errorf("tasks[%d]: %w", i, domain.ErrEmptyTask)
		}
		if task.CreatedAt.IsZero() {
			return fmt.Errorf("tasks[%d].created_at is required", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate task id: %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func snapshotTaskFromDomain(t domain.Task) SnapshotTask {
	return SnapshotTask{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func (t SnapshotTask) toDomain() domain.Task {
	updated := t.UpdatedAt
	if updated.IsZero() {
		updated = t.CreatedAt
	}
	return domain.Task{
		ID:          strings.TrimSpace(t.ID),
		Title:       strings.TrimSpace(t.Title),
		Description: strings.TrimSpace(t.Description),
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   updated.UTC(),
	}
}
