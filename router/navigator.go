package router

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

const maxRedirects = 10

// State is the authentication state the UI is in.
type State uint8

const (
	// Unauthenticated means no token is stored.
	Unauthenticated State = iota
	// Authenticated means a token is stored.
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Transition describes a committed navigation.
type Transition struct {
	From      Location
	To        Location
	Requested Location
	Redirects []Decision
}

// Redirected reports whether the guard changed the requested target.
func (t Transition) Redirected() bool {
	return len(t.Redirects) > 0
}

// Navigator tracks the current location and runs every transition through the
// guard. Transitions are serialised: a navigation decides and commits before the
// next one starts, so a redirect issued after a token is cleared always lands last.
// Hooks run inside the transition and must not navigate.
type Navigator struct {
	guard  *Guard
	logger *slog.Logger

	// transition is held from the first guard decision to the commit.
	transition sync.Mutex

	mu         sync.Mutex
	current    Location
	onChange   []func(context.Context, Transition)
	onDecision []func(context.Context, Request, Decision)
}

// NewNavigator returns a navigator with no current location.
func NewNavigator(guard *Guard, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Navigator{guard: guard, logger: logger}
}

// OnChange registers fn to run after each committed transition.
func (n *Navigator) OnChange(fn func(context.Context, Transition)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChange = append(n.onChange, fn)
}

// OnDecision registers fn to run for every guard evaluation, redirects included.
func (n *Navigator) OnDecision(fn func(context.Context, Request, Decision)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onDecision = append(n.onDecision, fn)
}

// Current returns the current location; zero before the first navigation.
func (n *Navigator) Current() Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// State reports whether a token is currently stored.
func (n *Navigator) State(ctx context.Context) State {
	if n.guard.tokens != nil && n.guard.tokens.Token(ctx) != "" {
		return Authenticated
	}
	return Unauthenticated
}

// Push navigates to the named route.
func (n *Navigator) Push(ctx context.Context, name string, params map[string]string) (Location, error) {
	loc, err := n.guard.table.Locate(name, params)
	if err != nil {
		return n.Current(), err
	}
	return n.navigate(ctx, loc)
}

// PushPath navigates to the route matching path.
func (n *Navigator) PushPath(ctx context.Context, path string) (Location, error) {
	loc, err := n.guard.table.Match(path)
	if err != nil {
		return n.Current(), err
	}
	return n.navigate(ctx, loc)
}

// RedirectToLogin navigates to the login route. Failures are logged, not returned.
func (n *Navigator) RedirectToLogin(ctx context.Context) {
	if _, err := n.Push(ctx, n.guard.table.Login().Name, nil); err != nil {
		n.logger.WarnContext(ctx, "redirect to login failed", "error", err)
	}
}

func (n *Navigator) navigate(ctx context.Context, requested Location) (Location, error) {
	n.transition.Lock()
	defer n.transition.Unlock()

	n.mu.Lock()
	from := n.current
	decisionHooks := append([]func(context.Context, Request, Decision){}, n.onDecision...)
	n.mu.Unlock()

	target := requested
	var redirects []Decision
	for hop := 0; ; hop++ {
		if hop > maxRedirects {
			return from, fmt.Errorf("%w: gave up after %d redirects requesting %q", ErrRedirectLoop, maxRedirects, requested.Route.Name)
		}

		req := Request{To: target.Route, From: from.Route}
		d := n.guard.Decide(ctx, req)
		for _, fn := range decisionHooks {
			fn(ctx, req, d)
		}
		if d.Outcome == Allow {
			break
		}

		n.logger.DebugContext(ctx, "navigation redirected",
			"requested", target.Route.Name,
			"redirect", d.Target.Name,
			"outcome", d.Outcome.String(),
		)
		redirects = append(redirects, d)
		next, err := n.guard.table.Locate(d.Target.Name, nil)
		if err != nil {
			return from, err
		}
		target = next
	}

	n.mu.Lock()
	if n.current.same(target) {
		cur := n.current
		n.mu.Unlock()
		return cur, nil
	}
	prev := n.current
	n.current = target
	changeHooks := append([]func(context.Context, Transition){}, n.onChange...)
	n.mu.Unlock()

	tr := Transition{From: prev, To: target, Requested: requested, Redirects: redirects}
	for _, fn := range changeHooks {
		fn(ctx, tr)
	}
	return target, nil
}
