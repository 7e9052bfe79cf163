package client

import (
	"context"
	"sync"
	"time"
)

// Poller re-runs a fetch at a fixed interval for live views (unread counts,
// comment threads). Pause while the owning sheet is closed so no requests
// are wasted; Resume when it opens again. Stopping the context guarantees
// the callback never fires afterwards.
type Poller struct {
	interval time.Duration
	fn       func(ctx context.Context)

	mu     sync.Mutex
	paused bool
}

// NewPoller clamps the interval into the 3-10s band the views use.
func NewPoller(interval time.Duration, fn func(ctx context.Context)) *Poller {
	if interval < 3*time.Second {
		interval = 3 * time.Second
	}
	if interval > 10*time.Second {
		interval = 10 * time.Second
	}
	return &Poller{interval: interval, fn: fn}
}

// Start runs the loop until ctx is cancelled. An immediate first tick fires
// unless the poller starts paused.
func (p *Poller) Start(ctx context.Context) {
	if !p.isPaused() {
		p.fn(ctx)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.isPaused() {
				continue
			}
			p.fn(ctx)
		}
	}
}

// Pause suspends ticks without stopping the loop.
func (p *Poller) Pause() {
	p.mu.Lock()
	p.paused = true
	p.mu.Unlock()
}

// Resume re-enables ticks.
func (p *Poller) Resume() {
	p.mu.Lock()
	p.paused = false
	p.mu.Unlock()
}

func (p *Poller) isPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}
