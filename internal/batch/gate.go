package batch

import (
	"context"
	"sync"
)

// Gate suspends scheduler progress while a run is paused. It replaces
// interval polling with a channel the scheduler blocks on: Wait returns
// immediately while the gate is open and parks the caller until Resume (or
// context cancellation) while it is closed.
type Gate struct {
	mu   sync.Mutex
	open chan struct{}
}

// NewGate returns an open gate.
func NewGate() *Gate {
	gate := &Gate{open: make(chan struct{})}
	close(gate.open)
	return gate
}

// Pause closes the gate. No-op when already paused.
func (g *Gate) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.open:
		g.open = make(chan struct{})
	default:
	}
}

// Resume opens the gate and releases all waiters. No-op when already open.
func (g *Gate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.open:
	default:
		close(g.open)
	}
}

// Wait blocks while the gate is paused. It returns the context error when
// the context is cancelled first.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	open := g.open
	g.mu.Unlock()

	select {
	case <-open:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
