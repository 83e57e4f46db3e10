package router

import "errors"

var (
	// ErrInvalidRouteTable is returned when a route table fails validation.
	ErrInvalidRouteTable = errors.New("invalid route table")
	// ErrUnknownRoute is returned when navigating to a name or path not in the table.
	ErrUnknownRoute = errors.New("unknown route")
	// ErrRedirectLoop is returned when guard redirects do not settle.
	ErrRedirectLoop = errors.New("navigation redirect loop")
)
