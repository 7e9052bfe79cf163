package client

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPollerIntervalClamp(t *testing.T) {
	p := NewPoller(time.Millisecond, nil)
	assert.Equal(t, 3*time.Second, p.interval)

	p = NewPoller(time.Minute, nil)
	assert.Equal(t, 10*time.Second, p.interval)

	p = NewPoller(5*time.Second, nil)
	assert.Equal(t, 5*time.Second, p.interval)
}

func TestPollerPauseSuppressesTicks(t *testing.T) {
	var calls int64
	p := NewPoller(3*time.Second, func(ctx context.Context) {
		atomic.AddInt64(&calls, 1)
	})
	p.Pause()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	// Paused before start: not even the immediate first tick fires.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(0), atomic.LoadInt64(&calls))

	cancel()
	<-done
}

func TestPollerRunsImmediatelyAndStops(t *testing.T) {
	var calls int64
	p := NewPoller(10*time.Second, func(ctx context.Context) {
		atomic.AddInt64(&calls, 1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&calls) == 1
	}, time.Second, 10*time.Millisecond, "first tick should fire immediately")

	cancel()
	<-done

	// No callback fires after Start returns.
	before := atomic.LoadInt64(&calls)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, atomic.LoadInt64(&calls))
}
