package router

import "context"

// TokenSource reports the current bearer token, "" when none is stored.
type TokenSource interface {
	Token(ctx context.Context) string
}

// Outcome is the guard's verdict for one navigation request.
type Outcome uint8

const (
	// Allow lets the navigation proceed to its target.
	Allow Outcome = iota
	// RedirectLogin sends the navigation to the login route.
	RedirectLogin
	// RedirectLanding sends the navigation to the landing route.
	RedirectLanding
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectLanding:
		return "redirect_landing"
	default:
		return "unknown"
	}
}

// Request is one navigation attempt.
type Request struct {
	To   Route
	From Route
}

// Decision is the guard's answer. Target is the route navigation ends up on for
// this step: the requested route for Allow, the redirect route otherwise.
type Decision struct {
	Outcome Outcome
	Target  Route
}

// Guard is the pre-navigation hook.
type Guard struct {
	table  *Table
	tokens TokenSource
}

// NewGuard returns a guard over table reading tokens from tokens.
func NewGuard(table *Table, tokens TokenSource) *Guard {
	return &Guard{table: table, tokens: tokens}
}

// Table returns the route table the guard enforces.
func (g *Guard) Table() *Table {
	return g.table
}

// Decide evaluates req. It reads the token once and never blocks beyond that lookup.
func (g *Guard) Decide(ctx context.Context, req Request) Decision {
	hasToken := g.tokens != nil && g.tokens.Token(ctx) != ""

	if req.To.Public && hasToken {
		return Decision{Outcome: RedirectLanding, Target: g.table.Landing()}
	}
	if req.To.RequiresAuth && !hasToken {
		return Decision{Outcome: RedirectLogin, Target: g.table.Login()}
	}
	return Decision{Outcome: Allow, Target: req.To}
}
