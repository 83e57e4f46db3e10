package router

import (
	"fmt"
	"strings"

	"github.com/gorilla/mux"
)

const (
	// DefaultLoginRoute is the route unauthenticated users are sent to.
	DefaultLoginRoute = "login"
	// DefaultLandingRoute is the route authenticated users land on.
	DefaultLandingRoute = "notes"
)

// Route describes one navigable screen. Path uses gorilla/mux templates, so
// "/notes/{id:[0-9]+}" is valid.
type Route struct {
	Name         string `yaml:"name"`
	Path         string `yaml:"path"`
	RequiresAuth bool   `yaml:"requiresAuth"`
	Public       bool   `yaml:"public"`
}

// Options names the two routes the guard redirects to.
type Options struct {
	Login   string `yaml:"login"`
	Landing string `yaml:"landing"`
}

// Table is an ordered, validated, immutable set of routes.
type Table struct {
	routes  []Route
	byName  map[string]int
	login   string
	landing string
	matcher *mux.Router
}

// DefaultTable returns the built-in route set: home and login are public, the notes
// screens require authentication.
func DefaultTable() *Table {
	t, err := NewTable([]Route{
		{Name: "home", Path: "/", Public: true},
		{Name: "login", Path: "/login", Public: true},
		{Name: "notes", Path: "/notes", RequiresAuth: true},
		{Name: "add-note", Path: "/add-note", RequiresAuth: true},
		{Name: "note", Path: "/notes/{id:[0-9]+}", RequiresAuth: true},
	}, Options{})
	if err != nil {
		panic(err)
	}
	return t
}

// NewTable validates routes and builds a table. Empty option fields default to
// [DefaultLoginRoute] and [DefaultLandingRoute]. All failures wrap
// [ErrInvalidRouteTable].
func NewTable(routes []Route, opts Options) (*Table, error) {
	if len(routes) == 0 {
		return nil, fmt.Errorf("%w: no routes", ErrInvalidRouteTable)
	}
	if opts.Login == "" {
		opts.Login = DefaultLoginRoute
	}
	if opts.Landing == "" {
		opts.Landing = DefaultLandingRoute
	}

	t := &Table{
		routes:  make([]Route, 0, len(routes)),
		byName:  make(map[string]int, len(routes)),
		login:   opts.Login,
		landing: opts.Landing,
		matcher: mux.NewRouter(),
	}

	paths := make(map[string]string, len(routes))
	for _, r := range routes {
		r.Name = strings.TrimSpace(r.Name)
		r.Path = strings.TrimSpace(r.Path)

		if r.Name == "" {
			return nil, fmt.Errorf("%w: route with path %q has no name", ErrInvalidRouteTable, r.Path)
		}
		if _, dup := t.byName[r.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate route name %q", ErrInvalidRouteTable, r.Name)
		}
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("%w: route %q path %q must start with /", ErrInvalidRouteTable, r.Name, r.Path)
		}
		if other, dup := paths[r.Path]; dup {
			return nil, fmt.Errorf("%w: routes %q and %q share path %q", ErrInvalidRouteTable, other, r.Name, r.Path)
		}
		if r.Public && r.RequiresAuth {
			return nil, fmt.Errorf("%w: route %q is both public and auth-required", ErrInvalidRouteTable, r.Name)
		}
		if err := t.matcher.Path(r.Path).Name(r.Name).GetError(); err != nil {
			return nil, fmt.Errorf("%w: route %q: %v", ErrInvalidRouteTable, r.Name, err)
		}

		paths[r.Path] = r.Name
		t.byName[r.Name] = len(t.routes)
		t.routes = append(t.routes, r)
	}

	login, ok := t.Route(opts.Login)
	if !ok {
		return nil, fmt.Errorf("%w: login route %q not defined", ErrInvalidRouteTable, opts.Login)
	}
	if login.RequiresAuth {
		return nil, fmt.Errorf("%w: login route %q must not require auth", ErrInvalidRouteTable, opts.Login)
	}
	landing, ok := t.Route(opts.Landing)
	if !ok {
		return nil, fmt.Errorf("%w: landing route %q not defined", ErrInvalidRouteTable, opts.Landing)
	}
	if landing.Public {
		return nil, fmt.Errorf("%w: landing route %q must not be public", ErrInvalidRouteTable, opts.Landing)
	}
	// Redirects carry no parameters.
	for _, name := range []string{opts.Login, opts.Landing} {
		if _, err := t.matcher.Get(name).URLPath(); err != nil {
			return nil, fmt.Errorf("%w: redirect route %q: %v", ErrInvalidRouteTable, name, err)
		}
	}

	return t, nil
}

// Route looks up a route by name.
func (t *Table) Route(name string) (Route, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Route{}, false
	}
	return t.routes[i], true
}

// Routes returns the routes in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Login returns the login route.
func (t *Table) Login() Route {
	r, _ := t.Route(t.login)
	return r
}

// Landing returns the route authenticated users are redirected to.
func (t *Table) Landing() Route {
	r, _ := t.Route(t.landing)
	return r
}

// Options returns the login and landing route names.
func (t *Table) Options() Options {
	return Options{Login: t.login, Landing: t.landing}
}
