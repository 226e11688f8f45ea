package client

import (
	"context"
	"time"
)

// Poller runs a tick function on a fixed interval until stopped. It is
// the scheduled-task primitive behind every synchronization loop: each
// session phase owns a set of pollers, and leaving the phase stops
// them before the next phase's set starts, so a stale callback can
// never fire after its phase is gone.
type Poller struct {
	name     string
	interval time.Duration
	tick     func(ctx context.Context)
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewPoller(name string, interval time.Duration, tick func(ctx context.Context)) *Poller {
	return &Poller{name: name, interval: interval, tick: tick}
}

func (p *Poller) Name() string { return p.name }

// Start launches the loop. The first tick runs immediately; later
// ticks follow at the fixed interval. Start must not be called twice
// without an intervening Stop.
func (p *Poller) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			if ctx.Err() != nil {
				return
			}
			p.tick(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop cancels the loop and waits for the in-flight tick to finish, so
// the caller knows no further tick will run. Safe to call on a poller
// that was never started.
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel = nil
}
