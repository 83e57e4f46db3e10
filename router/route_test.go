package router

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewTableValidation(t *testing.T) {
	base := func() []Route {
		return []Route{
			{Name: "login", Path: "/login", Public: true},
			{Name: "notes", Path: "/notes", RequiresAuth: true},
		}
	}

	tests := []struct {
		name   string
		routes func() []Route
		opts   Options
	}{
		{name: "empty", routes: func() []Route { return nil }},
		{name: "public and auth", routes: func() []Route {
			r := base()
			r[1].Public = true
			return r
		}},
		{name: "duplicate name", routes: func() []Route {
			return append(base(), Route{Name: "notes", Path: "/other"})
		}},
		{name: "duplicate path", routes: func() []Route {
			return append(base(), Route{Name: "other", Path: "/notes"})
		}},
		{name: "missing name", routes: func() []Route {
			return append(base(), Route{Path: "/x"})
		}},
		{name: "relative path", routes: func() []Route {
			return append(base(), Route{Name: "x", Path: "x"})
		}},
		{name: "bad template", routes: func() []Route {
			return append(base(), Route{Name: "x", Path: "/x/{id"})
		}},
		{name: "missing login", routes: base, opts: Options{Login: "signin"}},
		{name: "missing landing", routes: base, opts: Options{Landing: "dashboard"}},
		{name: "login requires auth", routes: base, opts: Options{Login: "notes"}},
		{name: "landing is public", routes: base, opts: Options{Landing: "login"}},
		{name: "landing has path variables", routes: func() []Route {
			return append(base(), Route{Name: "note", Path: "/notes/{id:[0-9]+}", RequiresAuth: true})
		}, opts: Options{Landing: "note"}},
		{name: "login has path variables", routes: func() []Route {
			return append(base(), Route{Name: "signin", Path: "/signin/{provider}", Public: true})
		}, opts: Options{Login: "signin"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTable(tc.routes(), tc.opts)
			if !errors.Is(err, ErrInvalidRouteTable) {
				t.Fatalf("expected ErrInvalidRouteTable, got %v", err)
			}
		})
	}
}

func TestDefaultTable(t *testing.T) {
	tbl := DefaultTable()
	if tbl.Login().Name != "login" || tbl.Landing().Name != "notes" {
		t.Fatalf("unexpected defaults: login=%q landing=%q", tbl.Login().Name, tbl.Landing().Name)
	}
	for _, r := range tbl.Routes() {
		if r.Public && r.RequiresAuth {
			t.Fatalf("route %q is both public and auth-required", r.Name)
		}
	}
	home, _ := tbl.Route("home")
	if !home.Public {
		t.Fatal("home must be public")
	}
}

func TestTableMatch(t *testing.T) {
	tbl := DefaultTable()

	tests := []struct {
		path  string
		route string
		id    string
	}{
		{path: "/", route: "home"},
		{path: "/login", route: "login"},
		{path: "/notes/", route: "notes"},
		{path: "/notes/42", route: "note", id: "42"},
		{path: "/add-note?draft=1", route: "add-note"},
	}
	for _, tc := range tests {
		loc, err := tbl.Match(tc.path)
		if err != nil {
			t.Fatalf("match %q: %v", tc.path, err)
		}
		if loc.Route.Name != tc.route {
			t.Fatalf("match %q: expected %q, got %q", tc.path, tc.route, loc.Route.Name)
		}
		if tc.id != "" && loc.Params["id"] != tc.id {
			t.Fatalf("match %q: expected id %q, got %v", tc.path, tc.id, loc.Params)
		}
	}

	if _, err := tbl.Match("/notes/abc"); !errors.Is(err, ErrUnknownRoute) {
		t.Fatalf("expected ErrUnknownRoute, got %v", err)
	}
}

func TestTableLocate(t *testing.T) {
	tbl := DefaultTable()

	loc, err := tbl.Locate("note", map[string]string{"id": "7"})
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if loc.Path != "/notes/7" {
		t.Fatalf("expected /notes/7, got %q", loc.Path)
	}
	if _, err := tbl.Locate("note", nil); !errors.Is(err, ErrUnknownRoute) {
		t.Fatalf("expected ErrUnknownRoute for missing params, got %v", err)
	}
	if _, err := tbl.Locate("nope", nil); !errors.Is(err, ErrUnknownRoute) {
		t.Fatalf("expected ErrUnknownRoute, got %v", err)
	}
}

func TestParseTable(t *testing.T) {
	data := []byte(`
login: signin
landing: board
routes:
  - name: signin
    path: /signin
    public: true
  - name: board
    path: /board
    requiresAuth: true
  - name: about
    path: /about
`)
	tbl, err := ParseTable(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tbl.Login().Path != "/signin" || tbl.Landing().Path != "/board" {
		t.Fatalf("unexpected table: %+v", tbl.Options())
	}
	if len(tbl.Routes()) != 3 {
		t.Fatalf("expected 3 routes, got %d", len(tbl.Routes()))
	}
}

func TestLoadTableConflict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yml")
	data := []byte(`
routes:
  - name: login
    path: /login
    public: true
    requiresAuth: true
  - name: notes
    path: /notes
    requiresAuth: true
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTable(path); !errors.Is(err, ErrInvalidRouteTable) {
		t.Fatalf("expected ErrInvalidRouteTable, got %v", err)
	}
}

func TestParseTableRejectsGarbage(t *testing.T) {
	if _, err := ParseTable([]byte("routes: [")); !errors.Is(err, ErrInvalidRouteTable) {
		t.Fatalf("expected ErrInvalidRouteTable, got %v", err)
	}
}
