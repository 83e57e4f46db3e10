package noted

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/noted/jwt"
	"github.com/MrEthical07/noted/middleware"
	"github.com/MrEthical07/noted/notes"
	"github.com/MrEthical07/noted/router"
	"github.com/MrEthical07/noted/session"
	"github.com/redis/go-redis/v9"
)

// Client is a logged-in or anonymous user of the notes service. Build one with
// [New].
type Client struct {
	config   Config
	logger   *slog.Logger
	sessions *session.Context
	routes   *router.Table
	nav      *router.Navigator
	http     *http.Client
	notes    *notes.Service
	metrics  *Metrics
	events   *eventQueue
	redis    redis.UniversalClient
	closed   atomic.Bool
}

// Identity is what the stored token says about its holder. The signature is not
// verified.
type Identity struct {
	Username  string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Expired   bool
}

// Close drains pending events and releases a redis client dialled by Build.
func (c *Client) Close() error {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.events.Close()
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

// EventsDropped returns how many events were dropped on a full queue.
func (c *Client) EventsDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.events.Dropped()
}

// MetricsSnapshot returns a copy of the current counters and histograms.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// HTTPClient returns the intercepted client. Requests through it carry the bearer
// token and a 401 answer logs the user out.
func (c *Client) HTTPClient() *http.Client { return c.http }

// Notes returns the raw notes API. Its errors are *middleware.StatusError values
// rather than the classified errors of the Client note methods.
func (c *Client) Notes() *notes.Service { return c.notes }

// Routes returns the route table the guard uses.
func (c *Client) Routes() *router.Table { return c.routes }

// Config returns the configuration the client was built with.
func (c *Client) Config() Config { return c.config }

// Session returns the stored token and username.
func (c *Client) Session(ctx context.Context) session.Session {
	return c.sessions.Snapshot(ctx)
}

// State reports whether a token is stored.
func (c *Client) State(ctx context.Context) router.State {
	return c.nav.State(ctx)
}

// Current returns the current location; zero before the first navigation.
func (c *Client) Current() router.Location {
	return c.nav.Current()
}

// Navigate moves to the named route through the guard and returns where navigation
// ended up.
func (c *Client) Navigate(ctx context.Context, name string, params map[string]string) (router.Location, error) {
	return c.nav.Push(ctx, name, params)
}

// NavigatePath moves to the route matching path through the guard.
func (c *Client) NavigatePath(ctx context.Context, path string) (router.Location, error) {
	return c.nav.PushPath(ctx, path)
}

// RedirectToLogin navigates to the login route. It is the redirect half of the 401
// handler.
func (c *Client) RedirectToLogin(ctx context.Context) {
	c.nav.RedirectToLogin(ctx)
}

// Login authenticates against the service, stores the session and navigates to the
// landing route.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	resp, err := c.notes.Login(ctx, username, password)
	if err != nil {
		return c.loginFailed(ctx, username, err)
	}
	return c.startSession(ctx, resp)
}

// Register creates an account and signs in with it.
func (c *Client) Register(ctx context.Context, req notes.RegisterRequest) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	resp, err := c.notes.Register(ctx, req)
	if err != nil {
		return c.loginFailed(ctx, req.Username, err)
	}
	return c.startSession(ctx, resp)
}

func (c *Client) startSession(ctx context.Context, resp *notes.AuthResponse) error {
	if err := c.sessions.Login(ctx, resp.Token, resp.Username); err != nil {
		c.metrics.Inc(MetricLoginFailure)
		return fmt.Errorf("store session: %w", err)
	}
	c.metrics.Inc(MetricLoginSuccess)
	c.emit(ctx, Event{Type: EventSessionLogin, Username: resp.Username})

	if _, err := c.nav.Push(ctx, c.routes.Landing().Name, nil); err != nil {
		return fmt.Errorf("navigate to landing: %w", err)
	}
	return nil
}

func (c *Client) loginFailed(ctx context.Context, username string, err error) error {
	c.metrics.Inc(MetricLoginFailure)
	c.emit(ctx, Event{
		Type:     EventLoginFailure,
		Username: username,
		Status:   middleware.StatusCode(err),
	})
	if middleware.IsUnauthorized(err) || errors.Is(err, notes.ErrInvalidCredentials) {
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	return err
}

// Logout clears the session and navigates to login. Logging out without a session
// is not an error.
func (c *Client) Logout(ctx context.Context) error {
	username := c.sessions.Username(ctx)
	cleared, err := c.sessions.Clear(ctx)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if cleared {
		c.metrics.Inc(MetricSessionCleared)
		c.metrics.Inc(MetricLogout)
		c.emit(ctx, Event{Type: EventSessionLogout, Username: username})
	}
	c.nav.RedirectToLogin(ctx)
	return nil
}

// Whoami decodes the stored token.
func (c *Client) Whoami(ctx context.Context) (*Identity, error) {
	snap := c.sessions.Snapshot(ctx)
	if !snap.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	claims, err := jwt.Inspect(snap.Token)
	if err != nil {
		return nil, err
	}

	id := &Identity{
		Username:  claims.Username(),
		Role:      claims.Role,
		ExpiresAt: claims.Expiry(),
		Expired:   claims.Expired(time.Now()),
	}
	if id.Username == "" {
		id.Username = snap.Username
	}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	return id, nil
}

// ListNotes returns the signed-in user's notes. A 401 clears the session and
// returns an error wrapping [ErrUnauthorized].
func (c *Client) ListNotes(ctx context.Context) ([]notes.Note, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	out, err := c.notes.List(ctx)
	return out, classify(err)
}

// GetNote returns one note; [ErrNotFound] when it does not exist.
func (c *Client) GetNote(ctx context.Context, id int64) (*notes.Note, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	out, err := c.notes.Get(ctx, id)
	return out, classify(err)
}

// CreateNote validates req locally, then stores it.
func (c *Client) CreateNote(ctx context.Context, req notes.NoteRequest) (*notes.Note, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	out, err := c.notes.Create(ctx, req)
	return out, classify(err)
}

// UpdateNote replaces the note with id.
func (c *Client) UpdateNote(ctx context.Context, id int64, req notes.NoteRequest) (*notes.Note, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	out, err := c.notes.Update(ctx, id, req)
	return out, classify(err)
}

// DeleteNote removes the note with id.
func (c *Client) DeleteNote(ctx context.Context, id int64) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return classify(c.notes.Delete(ctx, id))
}

// classify adds ErrUnauthorized or ErrNotFound to HTTP failures so callers can use
// errors.Is; the *middleware.StatusError stays reachable through errors.As.
func classify(err error) error {
	switch middleware.StatusCode(err) {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return err
	}
}
