package tasks

import (
	"sync"

	"github.com/hylla/tasklist/internal/domain"
)

// filterKey names the saved filter entry.
const filterKey = "tasks_filter"

// SavedState keeps view state that outlives one ViewModel instance, such as the
// selected filter when the list screen is rebuilt.
type SavedState struct {
	mu     sync.Mutex
	values map[string]any
}

func NewSavedState() *SavedState {
	return &SavedState{values: map[string]any{}}
}

// Filter returns the saved filter, if any.
func (s *SavedState) Filter() (domain.Filter, bool) {
	if s == nil {
		return domain.FilterAll, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.values[filterKey].(domain.Filter)
	return f, ok
}

func (s *SavedState) SetFilter(f domain.Filter) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.values[filterKey] = f
	s.mu.Unlock()
}
