package domain

import (
	"strings"
	"time"
)

// Task is one to-do entry. Identity is the ID; the other fields are replaced
// wholesale through the mutators below.
type Task struct {
	ID          string
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TaskInput struct {
	ID          string
	Title       string
	Description string
	Completed   bool
}

func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Title == "" && in.Description == "" {
		return Task{}, ErrEmptyTask
	}

	return Task{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

func (t Task) IsActive() bool {
	return !t.Completed
}

func (t Task) IsEmpty() bool {
	return strings.TrimSpace(t.Title) == "" && strings.TrimSpace(t.Description) == ""
}

// TitleForList falls back to the description for untitled tasks.
func (t Task) TitleForList() string {
	if strings.TrimSpace(t.Title) != "" {
		return t.Title
	}
	return t.Description
}

func (t *Task) Complete(now time.Time) {
	t.Completed = true
	t.UpdatedAt = now.UTC()
}

func (t *Task) Activate(now time.Time) {
	t.Completed = false
	t.UpdatedAt = now.UTC()
}

func (t *Task) UpdateDetails(title, description string, now time.Time) error {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" && description == "" {
		return ErrEmptyTask
	}
	t.Title = title
	t.Description = description
	t.UpdatedAt = now.UTC()
	return nil
}
