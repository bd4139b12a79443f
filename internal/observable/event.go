package observable

import "sync"

// Event wraps content that must be consumed at most once, such as a
// navigation request or a transient message.
type Event[T any] struct {
	mu      sync.Mutex
	content T
	handled bool
}

func NewEvent[T any](content T) *Event[T] {
	return &Event[T]{content: content}
}

// GetContentIfNotHandled returns the content the first time only.
func (e *Event[T]) GetContentIfNotHandled() (T, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handled {
		var zero T
		return zero, false
	}
	e.handled = true
	return e.content, true
}
