// Package uiloop provides the single execution context that owns all flow
// state. Work from other goroutines (provider calls, timers) is posted onto
// the loop and runs there one task at a time.
package uiloop

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrStopped = errors.New("ui loop stopped")
	ErrRunning = errors.New("ui loop already running")
)

// Dispatcher queues fn to run on the UI loop. It reports false when the
// loop no longer accepts work.
type Dispatcher interface {
	Post(fn func()) bool
}

// Timer is a single-shot timer whose callback runs on the UI loop.
type Timer interface {
	// Stop prevents the callback from running. It reports false if the
	// callback already ran or the timer was already stopped.
	Stop() bool
}

// Scheduler starts timers whose callbacks run on the UI loop.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Executor is everything a controller needs from the UI loop.
type Executor interface {
	Dispatcher
	Scheduler
}

// Loop is a FIFO task queue drained by Run. Post never blocks.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	running bool
	stopped bool
}

// New returns a loop that accepts tasks immediately. Tasks posted before
// Run starts are executed once it does.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Call posts fn and waits for it to finish. It must not be called from the
// loop itself.
func (l *Loop) Call(ctx context.Context, fn func()) error {
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
	}
}

// Run executes tasks until ctx is done. Once Run returns the loop is
// stopped for good: Post reports false and queued tasks are dropped.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	switch {
	case l.stopped:
		l.mu.Unlock()
		return ErrStopped
	case l.running:
		l.mu.Unlock()
		return ErrRunning
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.running = false
		l.queue = nil
		l.mu.Unlock()
	}()

	for {
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fn()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
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

// AfterFunc runs fn on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.claim() {
				fn()
			}
		})
	})
	return t
}

type loopTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	fired   bool
	stopped bool
}

func (t *loopTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	t.timer.Stop()
	return true
}

// claim marks the timer as fired unless it was stopped in the meantime,
// which covers a Stop that lands after the task was queued.
func (t *loopTimer) claim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.fired = true
	return true
}
