package middleware

import (
	"log/slog"
	"net/http"
)

// Logging writes one debug line per exchange, or a warning when the exchange
// failed. Headers are never logged.
func Logging(logger *slog.Logger) ResponseInterceptor {
	return func(req *http.Request, resp *http.Response, err error) (*http.Response, error) {
		if logger == nil {
			return resp, err
		}
		ctx := req.Context()
		attrs := []any{
			"method", req.Method,
			"url", redactURL(req),
			"elapsed", Elapsed(req),
		}
		if id, ok := RequestIDFromContext(ctx); ok {
			attrs = append(attrs, "request_id", id)
		}

		switch {
		case err != nil:
			if code := StatusCode(err); code != 0 {
				attrs = append(attrs, "status", code)
			}
			logger.WarnContext(ctx, "http request failed", append(attrs, "error", err)...)
		case resp != nil:
			logger.DebugContext(ctx, "http request", append(attrs, "status", resp.StatusCode)...)
		}
		return resp, err
	}
}
