// Package guard decides whether the active route has to change given the
// session state. Decide is the pure policy; Guard wraps it for hosts that
// observe state changes and need at most one navigation per change.
package guard

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Navigator performs replace-style navigation (no history entry is added).
// Completion and failure of the transition belong to the navigator.
type Navigator interface {
	Replace(path string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(path string)

// Replace calls f(path)
func (f NavigatorFunc) Replace(path string) {
	f(path)
}

// Guard re-evaluates the policy every time it observes a snapshot and
// issues at most one Replace per evaluation.
//
// Replace calls are issued one at a time, in the order the decisions were
// made, so the last navigation always matches the last redirect decision
// even when Evaluate is called from several goroutines. An Evaluate that
// runs while another is navigating queues its target and returns; the
// navigating caller issues it before returning.
type Guard struct {
	policy Policy
	nav    Navigator
	logger *zap.Logger

	mu       sync.Mutex
	last     Snapshot
	decision Decision
	seen     bool
	pending  []string
	draining bool
}

// NewGuard creates a Guard. The policy is expected to be validated.
func NewGuard(policy Policy, nav Navigator, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		policy: policy,
		nav:    nav,
		logger: logger,
	}
}

// Policy returns the policy the guard decides with
func (g *Guard) Policy() Policy {
	return g.policy
}

// Evaluate decides for snap and navigates when the decision is a redirect.
// Evaluating a snapshot equal to the previous one returns the previous
// decision without navigating again, so a host that re-runs the effect
// before the route changes does not loop.
//
// Replace is called after the guard's lock is released, so a navigator may
// synchronously feed the resulting route change back into Evaluate.
func (g *Guard) Evaluate(snap Snapshot) Decision {
	g.mu.Lock()
	if g.seen && snap.Equal(g.last) {
		decision := g.decision
		g.mu.Unlock()
		return decision
	}

	decision := Decide(g.policy, snap.Auth, snap.Group)
	g.last = snap
	g.decision = decision
	g.seen = true
	if decision.Redirects() {
		g.pending = append(g.pending, decision.Target)
	}
	drain := !g.draining && len(g.pending) > 0
	if drain {
		g.draining = true
	}
	g.mu.Unlock()

	if decision.Redirects() {
		g.logger.Info("route guard redirect",
			zap.String("auth_status", snap.Auth.Status.String()),
			zap.String("route_group", snap.Group),
			zap.String("target", decision.Target))
	} else {
		g.logger.Debug("route guard evaluated",
			zap.String("auth_status", snap.Auth.Status.String()),
			zap.String("route_group", snap.Group),
			zap.Stringer("action", decision.Action))
	}

	if drain {
		g.drain()
	}
	return decision
}

// drain issues queued navigations until none are left. Only one caller
// drains at a time.
func (g *Guard) drain() {
	for {
		g.mu.Lock()
		if len(g.pending) == 0 {
			g.draining = false
			g.mu.Unlock()
			return
		}
		target := g.pending[0]
		g.pending = g.pending[1:]
		g.mu.Unlock()

		g.nav.Replace(target)
	}
}

// Run evaluates snapshots in arrival order until the channel is closed or
// ctx is done.
func (g *Guard) Run(ctx context.Context, snapshots <-chan Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			g.Evaluate(snap)
		}
	}
}
