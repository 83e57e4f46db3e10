package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// ErrEmptyToken is returned by [Context.Login] when no token is given.
var ErrEmptyToken = errors.New("empty session token")

// Context is the session object shared by the navigation guard and the HTTP
// interceptors. Writes are serialized so token and username always change together.
type Context struct {
	store  Store
	logger *slog.Logger
	mu     sync.Mutex
}

// NewContext wraps store. A nil store falls back to a fresh [MemoryStore]; a nil
// logger discards output.
func NewContext(store Store, logger *slog.Logger) *Context {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Context{
		store:  store,
		logger: logger,
	}
}

// Store returns the underlying key-value store.
func (c *Context) Store() Store {
	return c.store
}

// Token returns the stored bearer token, or "" when none is stored. Lookup failures
// are logged and reported as "no token".
func (c *Context) Token(ctx context.Context) string {
	return c.lookup(ctx, KeyToken)
}

// Username returns the stored username, or "".
func (c *Context) Username(ctx context.Context) string {
	return c.lookup(ctx, KeyUsername)
}

// Authenticated reports whether a token is stored.
func (c *Context) Authenticated(ctx context.Context) bool {
	return c.Token(ctx) != ""
}

// Snapshot returns a copy of the stored state.
func (c *Context) Snapshot(ctx context.Context) Session {
	return Session{
		Token:    c.Token(ctx),
		Username: c.Username(ctx),
	}
}

// Login stores token and username. If the store fails half way, both keys are
// removed again so a partial session is never left behind.
func (c *Context) Login(ctx context.Context, token, username string) error {
	if token == "" {
		return ErrEmptyToken
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if bs, ok := c.store.(BatchSetter); ok {
		if err := bs.SetMany(ctx, map[string]string{KeyToken: token, KeyUsername: username}); err != nil {
			return fmt.Errorf("store session: %w", err)
		}
		return nil
	}

	if err := c.store.Set(ctx, KeyUsername, username); err != nil {
		return fmt.Errorf("store username: %w", err)
	}
	if err := c.store.Set(ctx, KeyToken, token); err != nil {
		if rmErr := c.store.Remove(ctx, KeyToken, KeyUsername); rmErr != nil {
			c.logger.WarnContext(ctx, "session rollback failed", "error", rmErr)
		}
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// Clear removes token and username in one store call. It reports whether a token
// was present before the call, so a second Clear returns false and leaves the store
// untouched.
func (c *Context) Clear(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, hadToken, getErr := c.store.Get(ctx, KeyToken)
	_, hadUser, _ := c.store.Get(ctx, KeyUsername)
	if getErr == nil && !hadToken && !hadUser {
		return false, nil
	}

	if err := c.store.Remove(ctx, KeyToken, KeyUsername); err != nil {
		return false, fmt.Errorf("clear session: %w", err)
	}
	return hadToken, nil
}

func (c *Context) lookup(ctx context.Context, key string) string {
	v, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "session lookup failed", "key", key, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return v
}
