package middleware

import (
	"context"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// TokenSource reports the current bearer token, "" when none is stored.
type TokenSource interface {
	Token(ctx context.Context) string
}

// Bearer attaches the stored token to every request. Without a token the request
// passes through unchanged.
func Bearer(tokens TokenSource) RequestInterceptor {
	return func(req *http.Request) (*http.Request, error) {
		if tokens == nil {
			return req, nil
		}
		if token := tokens.Token(req.Context()); token != "" {
			req.Header.Set("Authorization", bearerPrefix+token)
		}
		return req, nil
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(value string) (string, bool) {
	if !strings.HasPrefix(value, bearerPrefix) {
		return "", false
	}

	token := value[len(bearerPrefix):]
	if token == "" {
		return "", false
	}

	return token, true
}
