// Package guard decides whether a protected region is shown to a principal.
package guard

import (
	"sync"

	"github.com/devbridge/dev-bridge-manager/internal/permission"
)

// State is the lifecycle state of a Guard.
type State int

const (
	// Pending means the principal has not been resolved yet.
	Pending State = iota
	// Granted means the guarded content may be rendered.
	Granted
	// Denied means the deny action applies.
	Denied
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// ActionKind says what to do instead of rendering guarded content.
type ActionKind int

const (
	// ActionNone applies to granted and pending decisions.
	ActionNone ActionKind = iota
	// ActionHide renders nothing.
	ActionHide
	// ActionRedirect sends the user elsewhere.
	ActionRedirect
	// ActionFallback renders alternative content.
	ActionFallback
)

// DenyAction is applied when access is denied.
type DenyAction struct {
	Kind     ActionKind
	Target   string
	Fallback any
}

// Hide renders nothing on denial.
func Hide() DenyAction { return DenyAction{Kind: ActionHide} }

// Redirect navigates to target on denial.
func Redirect(target string) DenyAction { return DenyAction{Kind: ActionRedirect, Target: target} }

// Fallback renders node on denial.
func Fallback(node any) DenyAction { return DenyAction{Kind: ActionFallback, Fallback: node} }

// Decision is what the host should do for the guarded region.
type Decision struct {
	State State
	// Authenticated is false when the principal resolved to nobody.
	Authenticated bool
	Action        DenyAction
}

// Loading reports whether a neutral loading affordance should be shown.
func (d Decision) Loading() bool { return d.State == Pending }

// Render reports whether the guarded content may be shown.
func (d Decision) Render() bool { return d.State == Granted }

// Option configures a Guard.
type Option func(*Guard)

// OnUnauthenticated uses action instead of the deny action when the principal
// resolves to nobody.
func OnUnauthenticated(action DenyAction) Option {
	return func(g *Guard) {
		g.onUnauthenticated = &action
	}
}

// Guard is a reactive access check over a principal that may change over time.
type Guard struct {
	mu                sync.Mutex
	requirement       permission.Requirement
	onDeny            DenyAction
	onUnauthenticated *DenyAction
	decision          Decision
	listeners         []func(Decision)
}

// New returns a pending guard for requirement.
func New(requirement permission.Requirement, onDeny DenyAction, opts ...Option) *Guard {
	g := &Guard{
		requirement: requirement,
		onDeny:      onDeny,
		decision:    Decision{State: Pending},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Decision returns the current decision.
func (g *Guard) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

// Resolve evaluates the guard against p, which may be nil for an
// unauthenticated session. It can be called again whenever the principal changes.
func (g *Guard) Resolve(p *permission.Principal) Decision {
	g.mu.Lock()
	d := g.decide(p)
	changed := !sameDecision(d, g.decision)
	g.decision = d
	listeners := append([]func(Decision){}, g.listeners...)
	g.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(d)
		}
	}
	return d
}

// Reset returns the guard to Pending, e.g. while a session restore is in flight.
func (g *Guard) Reset() {
	g.mu.Lock()
	changed := g.decision.State != Pending
	g.decision = Decision{State: Pending}
	listeners := append([]func(Decision){}, g.listeners...)
	g.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(Decision{State: Pending})
		}
	}
}

// Subscribe registers fn to be called on every decision change.
func (g *Guard) Subscribe(fn func(Decision)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

func (g *Guard) decide(p *permission.Principal) Decision {
	if p == nil {
		action := g.onDeny
		if g.onUnauthenticated != nil {
			action = *g.onUnauthenticated
		}
		return Decision{State: Denied, Action: action}
	}
	if !permission.Evaluate(p, g.requirement) {
		return Decision{State: Denied, Authenticated: true, Action: g.onDeny}
	}
	return Decision{State: Granted, Authenticated: true}
}

// sameDecision compares decisions without touching fallback payloads,
// which may hold uncomparable values.
func sameDecision(a, b Decision) bool {
	return a.State == b.State &&
		a.Authenticated == b.Authenticated &&
		a.Action.Kind == b.Action.Kind &&
		a.Action.Target == b.Action.Target
}

// Decide is the one-shot form of a guard for an already resolved principal.
func Decide(p *permission.Principal, requirement permission.Requirement, onDeny DenyAction, opts ...Option) Decision {
	return New(requirement, onDeny, opts...).Resolve(p)
}
