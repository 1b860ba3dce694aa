package bounce

import (
	"context"
	"sync"
)

// Loop is a host task queue running on a single goroutine. It owns an engine:
// deferred ticks and submitted work share one FIFO, so a race event submitted
// before a tick's turn wins the race.
type Loop struct {
	engine *Engine

	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

// NewLoop creates a loop and its engine. The engine belongs to the goroutine calling Run.
func NewLoop(tree Tree, opts ...Option) *Loop {
	l := &Loop{
		queue: make([]func(), 0),
		wake:  make(chan struct{}, 1),
	}
	l.engine = New(tree, append(opts, WithHost(l))...)

	return l
}

// Post queues fn for a later turn. Safe for concurrent use.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Submit queues fn to run on the loop goroutine with the engine. Safe for concurrent use.
func (l *Loop) Submit(fn func(*Engine)) {
	l.Post(func() { fn(l.engine) })
}

// Run processes one callback per turn until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	l.engine.adopt()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fn, ok := l.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.wake:
				continue
			}
		}

		fn()
	}
}

// Len returns the number of queued callbacks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.queue)
}

func (l *Loop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil, false
	}

	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]

	return fn, true
}
