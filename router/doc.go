// Package router owns the client's route table and the navigation guard that runs
// before every route transition.
//
// # Guard policy
//
// [Guard.Decide] evaluates, in order:
//
//  1. target is public and a token is present: redirect to the landing route;
//  2. target requires authentication and no token is present: redirect to login;
//  3. otherwise allow.
//
// A route can never be both public and auth-required; [NewTable] rejects such a
// table with [ErrInvalidRouteTable], which callers treat as fatal at startup.
//
// # Navigator
//
// [Navigator] is the two-state machine (Unauthenticated, Authenticated) hosting the
// guard. It follows guard redirects until a route is allowed and reports every
// committed transition to its listeners.
package router
