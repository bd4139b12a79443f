// Package executortest swaps the process executor for a synchronous one in tests.
package executortest

import (
	"testing"

	"github.com/hylla/tasklist/internal/executor"
)

// UseImmediate installs executor.Immediate as the process default for the
// duration of t and returns it.
func UseImmediate(t testing.TB) executor.Executor {
	t.Helper()
	ex := executor.Immediate()
	restore := executor.SetDelegate(ex)
	t.Cleanup(restore)
	return ex
}
