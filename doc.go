// Package noted is the client for the noted notes service.
//
// A [Client] owns one session (token and username in a [session.Store]), a
// [router.Navigator] that runs every navigation through the authentication guard,
// and an *http.Client whose transport attaches the bearer token and reacts to 401
// answers by clearing the session and navigating to login.
//
//	c, err := noted.New().WithConfig(cfg).Build()
//	if err != nil { ... }
//	defer c.Close()
//	if err := c.Login(ctx, "alice", "secret"); err != nil { ... }
//	list, err := c.Notes().List(ctx)
//
// Clients are safe for concurrent use. No lock is held across network I/O.
package noted
