package sdk

import (
	"fmt"
	"sync"
)

// Decision is the outcome of an access evaluation.
type Decision int

const (
	// DecisionUnresolved means the gate has not evaluated yet.
	DecisionUnresolved Decision = iota
	DecisionGranted
	DecisionDenied
)

func (d Decision) String() string {
	switch d {
	case DecisionGranted:
		return "granted"
	case DecisionDenied:
		return "denied"
	}
	return "unresolved"
}

// Evaluate is the pure access rule: granted iff the identity is
// authenticated and shares at least one role with allowed. Everything
// else — unauthenticated, empty claims, no intersection — is denied.
func Evaluate(id Identity, allowed []string) Decision {
	if !id.Authenticated {
		return DecisionDenied
	}
	for _, role := range allowed {
		if id.HasRole(role) {
			return DecisionGranted
		}
	}
	return DecisionDenied
}

// Gate guards a screen with an allowed-role set. It re-evaluates on
// every identity change while started, and fires the fallback effect
// exactly once per transition into denied — never once per read.
type Gate struct {
	provider Provider
	allowed  []string
	fallback func()

	mu       sync.Mutex
	decision Decision
	cancel   func()
}

// NewGate builds a gate over provider. allowed must be non-empty;
// fallback is the redirect effect and may be nil.
func NewGate(provider Provider, allowed []string, fallback func()) (*Gate, error) {
	if len(allowed) == 0 {
		return nil, fmt.Errorf("gate requires a non-empty allowed role set")
	}
	return &Gate{
		provider: provider,
		allowed:  append([]string(nil), allowed...),
		fallback: fallback,
	}, nil
}

// Start performs the initial evaluation and subscribes to identity
// changes. It returns the initial decision.
func (g *Gate) Start() Decision {
	g.mu.Lock()
	if g.cancel == nil {
		g.cancel = g.provider.Subscribe(func(Identity) {
			g.reevaluate()
		})
	}
	g.mu.Unlock()
	return g.reevaluate()
}

// Stop cancels the identity subscription. The last decision remains
// readable.
func (g *Gate) Stop() {
	g.mu.Lock()
	cancel := g.cancel
	g.cancel = nil
	g.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Decision returns the most recent evaluation without side effects.
func (g *Gate) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

func (g *Gate) reevaluate() Decision {
	// An error fetching the identity is a denial, never a stuck
	// unresolved state.
	next := DecisionDenied
	if id, err := g.provider.Current(); err == nil {
		next = Evaluate(id, g.allowed)
	}

	g.mu.Lock()
	prev := g.decision
	g.decision = next
	fallback := g.fallback
	g.mu.Unlock()

	if next == DecisionDenied && prev != DecisionDenied && fallback != nil {
		fallback()
	}
	return next
}
