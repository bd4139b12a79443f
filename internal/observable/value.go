// Package observable provides last-value holders that notify attached observers.
package observable

import (
	"slices"
	"sync"
)

// Observer receives every value set on a Value after it attaches.
type Observer[T any] func(T)

type observerEntry[T any] struct {
	id int
	fn Observer[T]
}

// Value holds the last emitted value of one state channel.
//
// Observers are notified synchronously, in registration order, on the goroutine
// calling Set. Callers that need a single writer serialize Set themselves; the
// view-model does so through its executor's main side.
type Value[T any] struct {
	mu        sync.Mutex
	value     T
	set       bool
	nextID    int
	observers []observerEntry[T]
	onActive  func()
}

// New returns a Value with no initial emission.
func New[T any]() *Value[T] {
	return &Value[T]{}
}

// Get returns the last value and whether one was ever set.
func (v *Value[T]) Get() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value, v.set
}

// Set stores val and notifies every attached observer.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	v.value = val
	v.set = true
	snapshot := append([]observerEntry[T](nil), v.observers...)
	v.mu.Unlock()

	for _, entry := range snapshot {
		entry.fn(val)
	}
}

// Observe attaches fn and replays the current value when one was set. The
// returned func detaches fn; calling it more than once is a no-op.
func (v *Value[T]) Observe(fn Observer[T]) func() {
	if fn == nil {
		return func() {}
	}
	v.mu.Lock()
	v.nextID++
	id := v.nextID
	v.observers = append(v.observers, observerEntry[T]{id: id, fn: fn})
	becameActive := len(v.observers) == 1
	current, hasValue := v.value, v.set
	onActive := v.onActive
	v.mu.Unlock()

	if hasValue {
		fn(current)
	}
	if becameActive && onActive != nil {
		onActive()
	}

	var once sync.Once
	return func() {
		once.Do(func() { v.remove(id) })
	}
}

// OnActive registers fn to run when the observer count moves from zero to one.
func (v *Value[T]) OnActive(fn func()) {
	v.mu.Lock()
	v.onActive = fn
	v.mu.Unlock()
}

func (v *Value[T]) remove(id int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.observers = slices.DeleteFunc(v.observers, func(entry observerEntry[T]) bool {
		return entry.id == id
	})
}
