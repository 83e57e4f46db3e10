package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

type requestIDContextKey struct{}

// WithRequestID attaches a request id to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFromContext returns the request id on ctx, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id, id != ""
}

// RequestID stamps every request with an X-Request-ID. An id already set on the
// header or on the request context is reused; otherwise a random UUID is generated.
// The id is also put on the request context for log correlation.
func RequestID() RequestInterceptor {
	return func(req *http.Request) (*http.Request, error) {
		id := req.Header.Get(RequestIDHeader)
		if id == "" {
			id, _ = RequestIDFromContext(req.Context())
		}
		if id == "" {
			id = uuid.NewString()
		}
		req.Header.Set(RequestIDHeader, id)
		return req.WithContext(WithRequestID(req.Context(), id)), nil
	}
}
