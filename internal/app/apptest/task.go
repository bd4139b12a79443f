package apptest

import (
	"time"

	"github.com/google/uuid"
	"github.com/hylla/tasklist/internal/domain"
)

// NewTask builds a task with a generated id, skipping validation so fixtures
// can hold any title and description.
func NewTask(title, description string, completed bool) domain.Task {
	now := time.Now().UTC()
	return domain.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Completed:   completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
