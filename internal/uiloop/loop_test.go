package uiloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc, <-chan error) {
	t.Helper()
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	t.Cleanup(cancel)
	return l, cancel, errCh
}

func TestLoop_RunsTasksInOrder(t *testing.T) {
	l, _, _ := startLoop(t)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		require.True(t, l.Post(func() { got = append(got, i) }))
	}
	require.NoError(t, l.Call(context.Background(), func() {}))

	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoop_PostFromTask(t *testing.T) {
	l, _, _ := startLoop(t)

	done := make(chan struct{})
	l.Post(func() {
		l.Post(func() { close(done) })
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("nested post did not run")
	}
}

func TestLoop_PostedBeforeRun(t *testing.T) {
	l := New()
	ran := make(chan struct{})
	require.True(t, l.Post(func() { close(ran) }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task posted before Run was not executed")
	}
}

func TestLoop_StopsAfterRunReturns(t *testing.T) {
	l, cancel, errCh := startLoop(t)
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}

	assert.False(t, l.Post(func() {}))
	assert.ErrorIs(t, l.Call(context.Background(), func() {}), ErrStopped)
	assert.ErrorIs(t, l.Run(context.Background()), ErrStopped)
}

func TestLoop_RunTwice(t *testing.T) {
	l, _, _ := startLoop(t)
	require.NoError(t, l.Call(context.Background(), func() {}))
	assert.ErrorIs(t, l.Run(context.Background()), ErrRunning)
}

func TestLoop_CallContextDone(t *testing.T) {
	l, _, _ := startLoop(t)

	block := make(chan struct{})
	l.Post(func() { <-block })
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Call(ctx, func() {}), context.DeadlineExceeded)
}

func TestLoop_AfterFuncRunsOnLoop(t *testing.T) {
	l, _, _ := startLoop(t)

	var mu sync.Mutex
	fired := false
	done := make(chan struct{})
	l.AfterFunc(5*time.Millisecond, func() {
		mu.Lock()
		fired = true
		mu.Unlock()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	mu.Lock()
	assert.True(t, fired)
	mu.Unlock()
}

func TestLoop_StoppedTimerNeverRuns(t *testing.T) {
	l, _, _ := startLoop(t)

	timerCh := make(chan Timer, 1)
	stopped := false
	fired := false

	l.Post(func() {
		tm := <-timerCh
		// the timer expires while this task holds the loop, so its
		// callback is already queued when Stop is called
		time.Sleep(20 * time.Millisecond)
		stopped = tm.Stop()
	})
	timerCh <- l.AfterFunc(time.Millisecond, func() { fired = true })

	require.NoError(t, l.Call(context.Background(), func() {}))
	require.NoError(t, l.Call(context.Background(), func() {}))
	assert.True(t, stopped)
	assert.False(t, fired)
}

func TestLoop_TimerStopTwice(t *testing.T) {
	l := New()
	timer := l.AfterFunc(time.Hour, func() {})
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
}
