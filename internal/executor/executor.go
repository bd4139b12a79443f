// Package executor abstracts where background work runs and where its results
// are delivered, so state owners stay single-writer and tests stay synchronous.
package executor

import "sync"

// Executor runs disk/network work off the caller and posts continuations back
// onto the owner's main side.
type Executor interface {
	ExecuteOnIO(fn func())
	PostToMain(fn func())
}

// immediate runs everything on the calling goroutine.
type immediate struct{}

// Immediate returns an Executor that runs every task synchronously, so an
// operation and all of its continuations finish before the call returns.
func Immediate() Executor {
	return immediate{}
}

func (immediate) ExecuteOnIO(fn func()) {
	if fn != nil {
		fn()
	}
}

func (immediate) PostToMain(fn func()) {
	if fn != nil {
		fn()
	}
}

var (
	delegateMu  sync.RWMutex
	delegate    Executor
	builtinLoop = sync.OnceValue(func() *Loop {
		return NewLoop(LoopOptions{})
	})
)

// Default returns the process-wide executor: the installed delegate, or the
// built-in Loop. Owners of the built-in Loop's main side must drain it.
func Default() Executor {
	delegateMu.RLock()
	d := delegate
	delegateMu.RUnlock()
	if d != nil {
		return d
	}
	return builtinLoop()
}

// BuiltinLoop exposes the loop backing Default when no delegate is set.
func BuiltinLoop() *Loop {
	return builtinLoop()
}

// SetDelegate installs e as the process default and returns a func restoring
// the previous delegate. A nil e falls back to the built-in Loop.
func SetDelegate(e Executor) (restore func()) {
	delegateMu.Lock()
	prev := delegate
	delegate = e
	delegateMu.Unlock()
	return func() {
		delegateMu.Lock()
		delegate = prev
		delegateMu.Unlock()
	}
}
