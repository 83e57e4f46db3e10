package noted

import "errors"

var (
	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrBuilderUsed is returned when Build is called twice on one builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrRedisRequired is returned when the redis session backend has neither a
	// client nor an address.
	ErrRedisRequired = errors.New("redis session backend requires a client or redis-addr")
	// ErrNotAuthenticated is returned by operations that need a stored token.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidCredentials is returned when the service rejects a login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned when an authenticated call was answered with 401
	// and the session has been cleared.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when the service answers 404.
	ErrNotFound = errors.New("not found")
	// ErrClientClosed is returned by calls made after Close.
	ErrClientClosed = errors.New("client closed")
)
