package client

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPollerTicksUntilStopped(t *testing.T) {
	var ticks atomic.Int64
	p := NewPoller("test", 10*time.Millisecond, func(ctx context.Context) {
		ticks.Add(1)
	})

	p.Start(context.Background())
	assert.Eventually(t, func() bool { return ticks.Load() >= 3 },
		time.Second, 5*time.Millisecond)

	p.Stop()
	after := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, ticks.Load(), "no tick may fire after Stop returns")
}

func TestPollerStopWaitsForInflightTick(t *testing.T) {
	release := make(chan struct{})
	var finished atomic.Bool
	p := NewPoller("slow", 5*time.Millisecond, func(ctx context.Context) {
		select {
		case <-release:
		case <-time.After(time.Second):
		}
		finished.Store(true)
	})

	p.Start(context.Background())
	time.Sleep(10 * time.Millisecond) // let the first tick block
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	p.Stop()
	assert.True(t, finished.Load(), "Stop must return only after the tick completed")
}

func TestPollerStopWithoutStart(t *testing.T) {
	p := NewPoller("idle", time.Millisecond, func(ctx context.Context) {})
	assert.NotPanics(t, func() { p.Stop() })
}

func TestPollerContextCancelStopsLoop(t *testing.T) {
	var ticks atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller("ctx", 5*time.Millisecond, func(ctx context.Context) {
		ticks.Add(1)
	})
	p.Start(ctx)
	assert.Eventually(t, func() bool { return ticks.Load() >= 1 },
		time.Second, time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())
}
