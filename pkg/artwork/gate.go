package artwork

import (
	"context"
	"sync"
	"time"
)

// Gate defaults.
const (
	DefaultConcurrency       = 10
	DefaultRequestsPerMinute = 100

	defaultGateWindow = time.Minute
	defaultGatePoll   = 500 * time.Millisecond
)

// Gate is the admission control for provider calls. A call may start only
// when both conditions hold: fewer than the concurrency ceiling calls are
// in flight, and fewer than the rate ceiling call-starts were recorded in
// the trailing window.
//
// A Gate is owned by whoever constructs it. Handing the same Gate to
// several orchestrators makes them share one budget (one provider account);
// giving each its own Gate isolates them. Acquire and Release are the only
// synchronized choke points in a batch.
type Gate struct {
	mu       sync.Mutex
	inflight int
	starts   []time.Time

	maxInflight int
	maxPerWin   int
	window      time.Duration
	poll        time.Duration
	now         func() time.Time
}

// NewGate creates a gate with the given concurrency ceiling and
// requests-per-minute ceiling. Non-positive values fall back to defaults.
func NewGate(maxInflight, perMinute int) *Gate {
	if maxInflight <= 0 {
		maxInflight = DefaultConcurrency
	}
	if perMinute <= 0 {
		perMinute = DefaultRequestsPerMinute
	}
	return &Gate{
		maxInflight: maxInflight,
		maxPerWin:   perMinute,
		window:      defaultGateWindow,
		poll:        defaultGatePoll,
		now:         time.Now,
	}
}

// Acquire blocks until the caller may start a provider call, polling the
// admission conditions at a fixed interval. It returns ctx.Err() if the
// context is cancelled while waiting. Every successful Acquire must be
// paired with exactly one Release.
func (g *Gate) Acquire(ctx context.Context) error {
	for {
		if g.tryAcquire() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.poll):
		}
	}
}

// Release marks one in-flight call as finished.
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inflight > 0 {
		g.inflight--
	}
}

// InFlight reports the number of currently admitted calls.
func (g *Gate) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inflight
}

// tryAcquire checks both ceilings and, if admission succeeds, records the
// call start. Pruning and recording happen under one lock so the window
// count can never be over-admitted by concurrent acquirers.
func (g *Gate) tryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.prune(now)

	if g.inflight >= g.maxInflight || len(g.starts) >= g.maxPerWin {
		return false
	}
	g.inflight++
	g.starts = append(g.starts, now)
	return true
}

// prune drops call-start records older than the trailing window.
// starts is append-only and time-ordered, so a single scan suffices.
func (g *Gate) prune(now time.Time) {
	cutoff := now.Add(-g.window)
	i := 0
	for i < len(g.starts) && !g.starts[i].After(cutoff) {
		i++
	}
	if i > 0 {
		g.starts = append(g.starts[:0], g.starts[i:]...)
	}
}
