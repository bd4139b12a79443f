package executor

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// defaultMainBuffer bounds queued main-side continuations before PostToMain blocks.
const defaultMainBuffer = 64

// LoopOptions tunes a Loop.
type LoopOptions struct {
	// IOLimit caps concurrent IO tasks; zero or less means unlimited.
	IOLimit    int
	MainBuffer int
}

// Loop runs IO work on goroutines and queues main-side continuations for one
// consumer, normally the UI event loop.
type Loop struct {
	group *errgroup.Group
	main  chan func()
	done  chan struct{}
	once  sync.Once

	mu      sync.Mutex
	limit   int
	running int
	backlog []func()
}

func NewLoop(opts LoopOptions) *Loop {
	buffer := opts.MainBuffer
	if buffer <= 0 {
		buffer = defaultMainBuffer
	}
	return &Loop{
		group: &errgroup.Group{},
		main:  make(chan func(), buffer),
		done:  make(chan struct{}),
		limit: opts.IOLimit,
	}
}

// ExecuteOnIO schedules fn on the IO group and never blocks. Once the IO limit
// is reached fn waits in a FIFO backlog for the next free worker.
func (l *Loop) ExecuteOnIO(fn func()) {
	if fn == nil {
		return
	}
	select {
	case <-l.done:
		return
	default:
	}
	l.mu.Lock()
	if l.limit > 0 && l.running >= l.limit {
		l.backlog = append(l.backlog, fn)
		l.mu.Unlock()
		return
	}
	l.running++
	l.mu.Unlock()
	l.group.Go(func() error {
		for next := fn; next != nil; next = l.next() {
			next()
		}
		return nil
	})
}

// next hands the finishing worker the oldest backlogged task, or releases its
// slot when the backlog is empty.
func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.backlog) == 0 {
		l.running--
		return nil
	}
	fn := l.backlog[0]
	l.backlog[0] = nil
	l.backlog = l.backlog[1:]
	return fn
}

// PostToMain queues fn for the main consumer. Posts after Close are dropped.
func (l *Loop) PostToMain(fn func()) {
	if fn == nil {
		return
	}
	select {
	case l.main <- fn:
	case <-l.done:
	}
}

// Main is the queue the main consumer reads from.
func (l *Loop) Main() <-chan func() {
	return l.main
}

// Done is closed by Close.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Drain runs queued continuations without blocking and returns how many ran.
func (l *Loop) Drain() int {
	ran := 0
	for {
		select {
		case fn := <-l.main:
			fn()
			ran++
		default:
			return ran
		}
	}
}

// Wait blocks until every scheduled IO task returned, backlogged ones included.
func (l *Loop) Wait() error {
	return l.group.Wait()
}

// Close stops accepting work. Queued continuations stay readable from Main.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}
