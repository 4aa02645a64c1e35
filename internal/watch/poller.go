// Package watch provides the polling loop behind live views. List and
// statistics queries tolerate staleness, so views simply re-query on a fixed
// interval instead of holding a push channel open.
package watch

import (
	"context"
	"sync"
	"time"
)

// Poller invokes a poll function immediately and then on a fixed interval
// until the context is cancelled or Stop is called.
type Poller struct {
	interval time.Duration
	poll     func(ctx context.Context)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a poller. The poll function is expected to handle its own
// errors: polling is best-effort and a failed cycle just leaves the previous
// view on screen.
func New(interval time.Duration, poll func(ctx context.Context)) *Poller {
	return &Poller{
		interval: interval,
		poll:     poll,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the polling loop. It blocks until the context is cancelled or
// Stop is called, beginning with an immediate poll.
func (p *Poller) Start(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// Stop terminates the polling loop. Safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}
