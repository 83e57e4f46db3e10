// Package middleware provides the client-side HTTP interceptor pipeline: typed
// request and response hooks composed into an [http.RoundTripper].
//
// # Interceptors
//
//   - [RequestID] stamps X-Request-ID.
//   - [Bearer] attaches the stored token as "Authorization: Bearer <token>".
//   - [StatusCheck] turns non-2xx responses into [*StatusError].
//   - [Unauthorized] reacts to HTTP 401: it clears the session, requests a redirect
//     to login and then returns the original error to the caller.
//   - [Logging] writes one slog line per exchange.
//
// # What this package must NOT do
//
//   - Swallow errors. Response interceptors may react to a failure but the caller
//     always observes it.
//   - Retry requests. Retry policy belongs to the transport.
//   - Log bearer tokens.
package middleware
