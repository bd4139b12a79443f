package tui

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/hylla/tasklist/internal/executor"
)

// Option configures a Model.
type Option func(*Model)

// ClipboardWriter copies text to the system clipboard.
type ClipboardWriter func(string) error

// WithLoop makes the model drain view-model continuations queued on loop.
// Without it the view-model executor is expected to run them inline.
func WithLoop(loop *executor.Loop) Option {
	return func(m *Model) {
		m.loop = loop
	}
}

// WithContext scopes the model's service calls to ctx, normally the program
// context that signal handling cancels.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithShowDescription renders the first description line under each title.
func WithShowDescription(show bool) Option {
	return func(m *Model) {
		m.showDescription = show
	}
}

// WithConfirmClear asks before clearing completed tasks.
func WithConfirmClear(confirm bool) Option {
	return func(m *Model) {
		m.confirmClear = confirm
	}
}

func WithClipboard(write ClipboardWriter) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}
