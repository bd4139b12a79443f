package executor

import (
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestImmediateRunsInline(t *testing.T) {
	var order []string
	ex := Immediate()
	ex.ExecuteOnIO(func() {
		order = append(order, "io")
		ex.PostToMain(func() { order = append(order, "main") })
	})
	order = append(order, "after")
	if !slices.Equal(order, []string{"io", "main", "after"}) {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestSetDelegateRestores(t *testing.T) {
	restore := SetDelegate(Immediate())
	if _, ok := Default().(immediate); !ok {
		t.Fatalf("expected immediate delegate, got %T", Default())
	}
	restore()
	if Default() != Executor(BuiltinLoop()) {
		t.Fatalf("expected built-in loop after restore, got %T", Default())
	}
}

func TestLoopRunsIOAndQueuesMain(t *testing.T) {
	loop := NewLoop(LoopOptions{IOLimit: 2})
	defer loop.Close()

	var ioRuns atomic.Int32
	for range 5 {
		loop.ExecuteOnIO(func() {
			ioRuns.Add(1)
			loop.PostToMain(func() {})
		})
	}
	if err := loop.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got := ioRuns.Load(); got != 5 {
		t.Fatalf("expected 5 io runs, got %d", got)
	}
	if ran := loop.Drain(); ran != 5 {
		t.Fatalf("expected 5 main continuations, got %d", ran)
	}
	if ran := loop.Drain(); ran != 0 {
		t.Fatalf("expected empty queue, got %d", ran)
	}
}

func TestLoopDropsWorkAfterClose(t *testing.T) {
	loop := NewLoop(LoopOptions{MainBuffer: 1})
	loop.Close()
	loop.ExecuteOnIO(func() { t.Error("io ran after close") })
	loop.PostToMain(func() {})
	loop.PostToMain(func() {})
	if err := loop.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	select {
	case <-loop.Done():
	default:
		t.Fatal("expected done channel closed")
	}
}

func TestLoopExecuteOnIODoesNotBlockAtLimit(t *testing.T) {
	loop := NewLoop(LoopOptions{IOLimit: 1, MainBuffer: 1})
	defer loop.Close()

	release := make(chan struct{})
	var (
		order []string
		mu    sync.Mutex
	)
	record := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, name)
	}
	loop.ExecuteOnIO(func() {
		<-release
		record("first")
	})

	scheduled := make(chan struct{})
	go func() {
		loop.ExecuteOnIO(func() { record("second") })
		loop.ExecuteOnIO(func() { record("third") })
		close(scheduled)
	}()
	select {
	case <-scheduled:
	case <-time.After(2 * time.Second):
		t.Fatal("ExecuteOnIO blocked while the IO limit was reached")
	}

	close(release)
	if err := loop.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if !slices.Equal(order, []string{"first", "second", "third"}) {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestLoopMainConsumerSchedulesWhileWorkersWaitOnFullQueue(t *testing.T) {
	loop := NewLoop(LoopOptions{IOLimit: 1, MainBuffer: 1})
	defer loop.Close()

	// Two continuations against a one-slot queue leave the only worker
	// blocked in PostToMain until the consumer reads.
	loop.ExecuteOnIO(func() {
		loop.PostToMain(func() {})
		loop.PostToMain(func() {})
	})

	var ran atomic.Int32
	scheduled := make(chan struct{})
	go func() {
		loop.ExecuteOnIO(func() { ran.Add(1) })
		close(scheduled)
	}()
	select {
	case <-scheduled:
	case <-time.After(2 * time.Second):
		t.Fatal("ExecuteOnIO deadlocked behind a worker waiting on the main queue")
	}

	for range 2 {
		select {
		case fn := <-loop.Main():
			fn()
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for a main continuation")
		}
	}
	if err := loop.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if ran.Load() != 1 {
		t.Fatalf("expected backlogged task to run once, got %d", ran.Load())
	}
}
