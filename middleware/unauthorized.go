package middleware

import (
	"context"
	"errors"
	"net/http"
)

// SessionClearer removes the stored session. It reports whether a token was removed.
type SessionClearer interface {
	Clear(ctx context.Context) (bool, error)
}

// LoginRedirector requests navigation to the login route. It must not block on the
// navigation outcome.
type LoginRedirector interface {
	RedirectToLogin(ctx context.Context)
}

// Unauthorized reacts to HTTP 401 failures: the session is cleared, then a redirect
// to login is requested, then the original failure is returned. A failed clear is
// joined onto the original error. All other outcomes pass through.
//
// Running it twice for the same session leaves the store in the same cleared state
// as running it once.
func Unauthorized(sessions SessionClearer, redirect LoginRedirector) ResponseInterceptor {
	return func(req *http.Request, resp *http.Response, err error) (*http.Response, error) {
		if !IsUnauthorized(err) {
			return resp, err
		}

		ctx := req.Context()
		if sessions != nil {
			if _, clearErr := sessions.Clear(ctx); clearErr != nil {
				err = errors.Join(err, clearErr)
			}
		}
		if redirect != nil {
			redirect.RedirectToLogin(ctx)
		}
		return resp, err
	}
}
