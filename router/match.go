package router

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
)

// Location is a resolved navigation target: the route plus the concrete path and
// any template variables.
type Location struct {
	Route  Route
	Path   string
	Params map[string]string
}

// IsZero reports whether l is the empty location (before the first navigation).
func (l Location) IsZero() bool {
	return l.Route.Name == ""
}

func (l Location) same(other Location) bool {
	return l.Route.Name == other.Route.Name && l.Path == other.Path
}

// Match resolves a concrete URL path to a route. A trailing slash is ignored.
func (t *Table) Match(path string) (Location, error) {
	u, err := url.Parse(path)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %q: %v", ErrUnknownRoute, path, err)
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}

	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: p}}
	var m mux.RouteMatch
	if !t.matcher.Match(req, &m) || m.Route == nil {
		return Location{}, fmt.Errorf("%w: %q", ErrUnknownRoute, path)
	}

	r, ok := t.Route(m.Route.GetName())
	if !ok {
		return Location{}, fmt.Errorf("%w: %q", ErrUnknownRoute, path)
	}
	return Location{Route: r, Path: p, Params: m.Vars}, nil
}

// Locate builds the location for a named route. Template variables are filled from
// params; a route with variables and missing params fails.
func (t *Table) Locate(name string, params map[string]string) (Location, error) {
	r, ok := t.Route(name)
	if !ok {
		return Location{}, fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}

	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, k, v)
	}
	u, err := t.matcher.Get(name).URLPath(pairs...)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %q: %v", ErrUnknownRoute, name, err)
	}
	return Location{Route: r, Path: u.Path, Params: params}, nil
}
