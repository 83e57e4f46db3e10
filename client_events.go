package noted

import (
	"context"
	"net/http"

	"github.com/MrEthical07/noted/middleware"
	"github.com/MrEthical07/noted/router"
)

func (c *Client) emit(ctx context.Context, event Event) {
	if c == nil {
		return
	}
	c.events.Emit(ctx, event)
}

func (c *Client) recordDecision(ctx context.Context, req router.Request, d router.Decision) {
	switch d.Outcome {
	case router.Allow:
		c.metrics.Inc(MetricNavigationAllowed)
		return
	case router.RedirectLogin:
		c.metrics.Inc(MetricNavigationRedirectLogin)
	case router.RedirectLanding:
		c.metrics.Inc(MetricNavigationRedirectLanding)
	}

	c.emit(ctx, Event{
		Type:  EventNavigationRedirect,
		Route: d.Target.Name,
		From:  req.From.Name,
		Metadata: map[string]string{
			"requested": req.To.Name,
			"outcome":   d.Outcome.String(),
		},
	})
}

// countRequest runs after Bearer and sees the final Authorization header.
func (c *Client) countRequest(req *http.Request) (*http.Request, error) {
	if req.Header.Get("Authorization") != "" {
		c.metrics.Inc(MetricRequestAuthorized)
	} else {
		c.metrics.Inc(MetricRequestAnonymous)
	}
	return req, nil
}

func (c *Client) observeResponse(req *http.Request, resp *http.Response, err error) (*http.Response, error) {
	c.metrics.Observe(MetricRequestLatency, middleware.Elapsed(req))
	if middleware.IsUnauthorized(err) {
		c.metrics.Inc(MetricAuthFailure)
	}
	return resp, err
}

// sessionExpiry is the clear half of the 401 handler. Only a clear that removed a
// token counts as an expiry, so concurrent 401s report one event.
type sessionExpiry struct {
	c *Client
}

func (s sessionExpiry) Clear(ctx context.Context) (bool, error) {
	username := s.c.sessions.Username(ctx)
	cleared, err := s.c.sessions.Clear(ctx)
	if err != nil {
		return cleared, err
	}
	if cleared {
		s.c.metrics.Inc(MetricSessionCleared)
		s.c.logger.InfoContext(ctx, "session expired", "username", username)
		s.c.emit(ctx, Event{
			Type:     EventSessionExpired,
			Username: username,
			Status:   http.StatusUnauthorized,
		})
	}
	return cleared, nil
}
