package engine

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
)

// ErrStopped is returned when work is handed to a loop that has stopped
var ErrStopped = errors.New("engine loop stopped")

// Loop runs posted tasks one at a time, in posting order, on a single
// goroutine. All selection state writes happen on it.
type Loop struct {
	running sync.Mutex
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped chan struct{}
	once    sync.Once
	log     *slog.Logger
}

// NewLoop creates a loop; call Run to start executing tasks
func NewLoop(log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
		log:     log,
	}
}

// Post queues fn without blocking. It reports false once the loop stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.stopped:
		return false
	default:
	}

	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do posts fn and waits until it ran. It must not be called from a task
// running on the loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		// the task may still have run before the loop noticed the stop
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Run executes tasks until ctx is done or Stop is called. Tasks still
// queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	l.running.Lock()
	defer l.running.Unlock()
	defer l.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.stopped:
			return nil
		case <-l.wake:
		}

		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			l.run(fn)

			select {
			case <-l.stopped:
				return nil
			default:
			}
		}
	}
}

// Stop makes Run return and rejects further posts
func (l *Loop) Stop() {
	l.once.Do(func() {
		close(l.stopped)
	})
}

// AfterExit stops the loop, waits until Run is no longer executing a task
// and then calls fn on the caller's goroutine
func (l *Loop) AfterExit(fn func()) {
	l.Stop()
	l.running.Lock()
	defer l.running.Unlock()
	fn()
}

func (l *Loop) next() (func(), bool) {
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

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("engine task panic",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	fn()
}
