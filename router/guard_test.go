package router

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"
)

type staticToken string

func (s staticToken) Token(context.Context) string { return string(s) }

type flappingToken struct{ n int }

func (f *flappingToken) Token(context.Context) string {
	f.n++
	if f.n%2 == 1 {
		return "abc123"
	}
	return ""
}

func route(t *testing.T, tbl *Table, name string) Route {
	t.Helper()
	r, ok := tbl.Route(name)
	if !ok {
		t.Fatalf("route %q missing", name)
	}
	return r
}

func TestGuardScenarios(t *testing.T) {
	tbl := DefaultTable()
	ctx := context.Background()

	tests := []struct {
		name    string
		token   string
		to      string
		outcome Outcome
		target  string
	}{
		{name: "token to notes", token: "abc123", to: "notes", outcome: Allow, target: "notes"},
		{name: "no token to notes", to: "notes", outcome: RedirectLogin, target: "login"},
		{name: "token to login", token: "abc123", to: "login", outcome: RedirectLanding, target: "notes"},
		{name: "token to home", token: "abc123", to: "home", outcome: RedirectLanding, target: "notes"},
		{name: "no token to login", to: "login", outcome: Allow, target: "login"},
		{name: "no token to home", to: "home", outcome: Allow, target: "home"},
		{name: "no token to add-note", to: "add-note", outcome: RedirectLogin, target: "login"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGuard(tbl, staticToken(tc.token))
			d := g.Decide(ctx, Request{To: route(t, tbl, tc.to)})
			if d.Outcome != tc.outcome {
				t.Fatalf("expected %s, got %s", tc.outcome, d.Outcome)
			}
			if d.Target.Name != tc.target {
				t.Fatalf("expected target %q, got %q", tc.target, d.Target.Name)
			}
		})
	}
}

func TestGuardNeutralRouteAlwaysAllowed(t *testing.T) {
	tbl, err := NewTable([]Route{
		{Name: "login", Path: "/login", Public: true},
		{Name: "notes", Path: "/notes", RequiresAuth: true},
		{Name: "about", Path: "/about"},
	}, Options{})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	about := route(t, tbl, "about")
	for _, tok := range []string{"", "abc123"} {
		d := NewGuard(tbl, staticToken(tok)).Decide(context.Background(), Request{To: about})
		if d.Outcome != Allow {
			t.Fatalf("token %q: expected allow, got %s", tok, d.Outcome)
		}
	}
}

func TestGuardNeverAllowsAuthRouteWithoutToken(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		routes := []Route{
			{Name: "login", Path: "/login", Public: true},
			{Name: "notes", Path: "/notes", RequiresAuth: true},
		}
		n := 1 + rng.Intn(8)
		for j := 0; j < n; j++ {
			r := Route{Name: fmt.Sprintf("r%d", j), Path: fmt.Sprintf("/r%d", j)}
			switch rng.Intn(3) {
			case 0:
				r.Public = true
			case 1:
				r.RequiresAuth = true
			}
			routes = append(routes, r)
		}
		tbl, err := NewTable(routes, Options{})
		if err != nil {
			t.Fatalf("table %d: %v", i, err)
		}

		g := NewGuard(tbl, staticToken(""))
		for _, r := range tbl.Routes() {
			for _, from := range tbl.Routes() {
				d := g.Decide(ctx, Request{To: r, From: from})
				if d.Target.RequiresAuth {
					t.Fatalf("table %d: %q -> %q landed on auth route %q without token", i, from.Name, r.Name, d.Target.Name)
				}
			}
		}

		nav := NewNavigator(g, nil)
		for _, r := range tbl.Routes() {
			loc, err := nav.Push(ctx, r.Name, nil)
			if err != nil {
				t.Fatalf("table %d: push %q: %v", i, r.Name, err)
			}
			if loc.Route.RequiresAuth {
				t.Fatalf("table %d: navigator committed auth route %q without token", i, loc.Route.Name)
			}
		}
	}
}

func TestNavigatorFollowsRedirects(t *testing.T) {
	ctx := context.Background()
	tbl := DefaultTable()
	tok := staticToken("")
	nav := NewNavigator(NewGuard(tbl, tok), nil)

	var transitions []Transition
	nav.OnChange(func(_ context.Context, tr Transition) { transitions = append(transitions, tr) })
	var decisions []Decision
	nav.OnDecision(func(_ context.Context, _ Request, d Decision) { decisions = append(decisions, d) })

	loc, err := nav.Push(ctx, "notes", nil)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if loc.Route.Name != "login" {
		t.Fatalf("expected login, got %q", loc.Route.Name)
	}
	if len(transitions) != 1 || !transitions[0].Redirected() || transitions[0].Requested.Route.Name != "notes" {
		t.Fatalf("unexpected transitions: %+v", transitions)
	}
	if len(decisions) != 2 || decisions[0].Outcome != RedirectLogin || decisions[1].Outcome != Allow {
		t.Fatalf("unexpected decisions: %+v", decisions)
	}
	if nav.State(ctx) != Unauthenticated {
		t.Fatal("expected unauthenticated state")
	}
}

func TestNavigatorAuthenticatedLoginRedirectsToLanding(t *testing.T) {
	ctx := context.Background()
	nav := NewNavigator(NewGuard(DefaultTable(), staticToken("abc123")), nil)

	loc, err := nav.PushPath(ctx, "/login")
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if loc.Route.Name != "notes" {
		t.Fatalf("expected notes, got %q", loc.Route.Name)
	}
	if nav.State(ctx) != Authenticated {
		t.Fatal("expected authenticated state")
	}
}

func TestNavigatorSameRouteIsNoop(t *testing.T) {
	ctx := context.Background()
	nav := NewNavigator(NewGuard(DefaultTable(), staticToken("")), nil)

	changes := 0
	nav.OnChange(func(context.Context, Transition) { changes++ })

	for i := 0; i < 3; i++ {
		nav.RedirectToLogin(ctx)
	}
	if changes != 1 {
		t.Fatalf("expected one transition, got %d", changes)
	}
	if nav.Current().Route.Name != "login" {
		t.Fatalf("expected login, got %q", nav.Current().Route.Name)
	}
}

func TestNavigatorPathParams(t *testing.T) {
	nav := NewNavigator(NewGuard(DefaultTable(), staticToken("abc123")), nil)
	loc, err := nav.PushPath(context.Background(), "/notes/12")
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if loc.Route.Name != "note" || loc.Params["id"] != "12" {
		t.Fatalf("unexpected location: %+v", loc)
	}
}

func TestNavigatorUnknownRouteKeepsCurrent(t *testing.T) {
	ctx := context.Background()
	nav := NewNavigator(NewGuard(DefaultTable(), staticToken("")), nil)
	if _, err := nav.Push(ctx, "home", nil); err != nil {
		t.Fatalf("push home: %v", err)
	}

	loc, err := nav.PushPath(ctx, "/nowhere")
	if !errors.Is(err, ErrUnknownRoute) {
		t.Fatalf("expected ErrUnknownRoute, got %v", err)
	}
	if loc.Route.Name != "home" {
		t.Fatalf("expected current to stay home, got %q", loc.Route.Name)
	}
}

func TestNavigatorRedirectLoop(t *testing.T) {
	nav := NewNavigator(NewGuard(DefaultTable(), &flappingToken{}), nil)
	if _, err := nav.Push(context.Background(), "home", nil); !errors.Is(err, ErrRedirectLoop) {
		t.Fatalf("expected ErrRedirectLoop, got %v", err)
	}
	if !nav.Current().IsZero() {
		t.Fatal("a looping navigation must not commit")
	}
}

// stallingToken blocks its first Token call after reading the value, so a caller
// can change the token while a navigation holds a stale answer.
type stallingToken struct {
	mu      sync.Mutex
	token   string
	calls   int
	stalled chan struct{}
	release chan struct{}
}

func (s *stallingToken) Token(context.Context) string {
	s.mu.Lock()
	v := s.token
	s.calls++
	first := s.calls == 1
	s.mu.Unlock()
	if first {
		close(s.stalled)
		<-s.release
	}
	return v
}

func (s *stallingToken) clear() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

func TestNavigatorRedirectAfterClearWinsOverStaleAllow(t *testing.T) {
	ctx := context.Background()
	tok := &stallingToken{token: "abc123", stalled: make(chan struct{}), release: make(chan struct{})}
	nav := NewNavigator(NewGuard(DefaultTable(), tok), nil)

	pushed := make(chan error, 1)
	go func() {
		_, err := nav.Push(ctx, "notes", nil)
		pushed <- err
	}()
	<-tok.stalled

	tok.clear()
	redirected := make(chan struct{})
	go func() {
		nav.RedirectToLogin(ctx)
		close(redirected)
	}()

	// The redirect may finish before the push resumes or queue behind it.
	select {
	case <-redirected:
	case <-time.After(50 * time.Millisecond):
	}
	close(tok.release)

	if err := <-pushed; err != nil {
		t.Fatalf("push: %v", err)
	}
	<-redirected

	cur := nav.Current()
	if cur.Route.RequiresAuth {
		t.Fatalf("navigator settled on auth route %q with no token", cur.Route.Name)
	}
	if cur.Route.Name != "login" {
		t.Fatalf("expected login, got %q", cur.Route.Name)
	}
}
