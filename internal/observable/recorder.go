package observable

import "sync"

// Recorder is an observer that keeps every value it has seen, in order.
type Recorder[T any] struct {
	mu     sync.Mutex
	values []T
	detach func()
}

// Record attaches a new Recorder to v. Sticky values are recorded as the
// first emission.
func Record[T any](v *Value[T]) *Recorder[T] {
	r := &Recorder[T]{}
	r.detach = v.Observe(r.append)
	return r
}

func (r *Recorder[T]) append(val T) {
	r.mu.Lock()
	r.values = append(r.values, val)
	r.mu.Unlock()
}

// Observed returns a copy of the full emission history.
func (r *Recorder[T]) Observed() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.values...)
}

// LastValue returns the most recent emission.
func (r *Recorder[T]) LastValue() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		var zero T
		return zero, false
	}
	return r.values[len(r.values)-1], true
}

// MustLast panics when nothing was recorded.
func (r *Recorder[T]) MustLast() T {
	v, ok := r.LastValue()
	if !ok {
		panic("observable: recorder has no values")
	}
	return v
}

func (r *Recorder[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

// Detach stops recording. The history is kept.
func (r *Recorder[T]) Detach() {
	if r.detach != nil {
		r.detach()
	}
}
