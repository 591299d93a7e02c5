// Package uilooptest provides a deterministic stand-in for uiloop.Loop.
// Tasks run only when the test calls Drain, and timers fire only when the
// test advances the fake clock.
package uilooptest

import (
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/booksummary/internal/uiloop"
)

// Loop implements uiloop.Executor. Post is safe from any goroutine; Drain
// and Advance must be called from the test goroutine.
type Loop struct {
	mu      sync.Mutex
	cond    *sync.Cond
	now     time.Time
	queue   []func()
	timers  []*timer
	seq     int
	stopped bool
}

var _ uiloop.Executor = (*Loop)(nil)

func New() *Loop {
	l := &Loop{now: time.Unix(0, 0)}
	l.cond = sync.NewCond(&l.mu)
	return l
}

func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return false
	}
	l.queue = append(l.queue, fn)
	l.cond.Broadcast()
	return true
}

// Stop makes later Posts report false, as a finished uiloop.Loop does.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	l.queue = nil
}

// Pending reports the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Drain runs queued tasks, including ones posted while draining, until the
// queue is empty. It returns the number of tasks run.
func (l *Loop) Drain() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return n
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
		n++
	}
}

// WaitPending blocks until at least one task is queued or timeout elapses.
// It is how tests wait for a result posted by a background goroutine.
func (l *Loop) WaitPending(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	stop := time.AfterFunc(timeout, func() {
		l.mu.Lock()
		l.cond.Broadcast()
		l.mu.Unlock()
	})
	defer stop.Stop()

	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.queue) == 0 {
		if !time.Now().Before(deadline) {
			return false
		}
		l.cond.Wait()
	}
	return true
}

// Settle waits for a posted result and drains the queue.
func (l *Loop) Settle(timeout time.Duration) bool {
	if !l.WaitPending(timeout) {
		return false
	}
	l.Drain()
	return true
}

// Now returns the fake clock.
func (l *Loop) Now() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

func (l *Loop) AfterFunc(d time.Duration, fn func()) uiloop.Timer {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	t := &timer{loop: l, when: l.now.Add(d), seq: l.seq, fn: fn}
	l.timers = append(l.timers, t)
	return t
}

// Advance moves the clock forward by d. Timers that come due are queued in
// deadline order and the queue is drained after each one, so a timer
// started by another timer's callback fires in the same Advance if it is
// due.
func (l *Loop) Advance(d time.Duration) {
	l.mu.Lock()
	target := l.now.Add(d)
	l.mu.Unlock()

	for {
		l.mu.Lock()
		t := l.nextDue(target)
		if t == nil {
			l.now = target
			l.mu.Unlock()
			l.Drain()
			return
		}
		l.now = t.when
		t.fired = true
		l.queue = append(l.queue, t.fn)
		l.mu.Unlock()

		l.Drain()
	}
}

// ActiveTimers reports timers that are neither stopped nor fired.
func (l *Loop) ActiveTimers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, t := range l.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

func (l *Loop) nextDue(target time.Time) *timer {
	due := make([]*timer, 0, len(l.timers))
	for _, t := range l.timers {
		if !t.fired && !t.stopped && !t.when.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].when.Equal(due[j].when) {
			return due[i].seq < due[j].seq
		}
		return due[i].when.Before(due[j].when)
	})
	return due[0]
}

type timer struct {
	loop    *Loop
	when    time.Time
	seq     int
	fn      func()
	fired   bool
	stopped bool
}

func (t *timer) Stop() bool {
	t.loop.mu.Lock()
	defer t.loop.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}
