package navigation

import (
	"strings"

	"github.com/yndnr/catdesk-go/internal/core/domain"
)

// Well-known paths.
const (
	PathRoot     = "/"
	PathLogin    = "/login"
	PathProducts = "/products"
)

// Route names.
const (
	RouteLogin       = "login"
	RouteProducts    = "products"
	RouteAddProduct  = "add-product"
	RouteViewProduct = "view-product"
	RouteEditProduct = "edit-product"
)

// RouteDef is one entry of a route table. Pattern segments starting with
// ':' bind a parameter. A definition with Redirect set is a static redirect
// and has no view.
type RouteDef struct {
	Name         string
	Pattern      string
	RequiresAuth bool
	Redirect     string
}

// Route is a resolved navigation target.
type Route struct {
	Name         string
	Path         string
	Params       map[string]string
	RequiresAuth bool
}

// Param returns the named path parameter, or "".
func (r Route) Param(name string) string {
	return r.Params[name]
}

// DefaultRoutes is the catdesk route table.
func DefaultRoutes() []RouteDef {
	return []RouteDef{
		{Name: RouteLogin, Pattern: PathLogin},
		{Name: RouteProducts, Pattern: PathProducts, RequiresAuth: true},
		{Name: RouteAddProduct, Pattern: "/products/new", RequiresAuth: true},
		{Name: RouteViewProduct, Pattern: "/products/:id", RequiresAuth: true},
		{Name: RouteEditProduct, Pattern: "/products/:id/edit", RequiresAuth: true},
		{Pattern: PathRoot, Redirect: PathLogin},
	}
}

// Table matches paths against route definitions in order.
type Table struct {
	defs []RouteDef
}

// NewTable creates a table. Earlier definitions win, so static segments
// must come before parameterised ones that would also match.
func NewTable(defs []RouteDef) *Table {
	return &Table{defs: defs}
}

// Match resolves path to its first matching definition.
func (t *Table) Match(path string) (RouteDef, Route, bool) {
	path = Clean(path)
	for _, def := range t.defs {
		if params, ok := matchPattern(def.Pattern, path); ok {
			return def, Route{
				Name:         def.Name,
				Path:         path,
				Params:       params,
				RequiresAuth: def.RequiresAuth,
			}, true
		}
	}
	return RouteDef{}, Route{}, false
}

// Lookup resolves path and fails with domain.ErrRouteNotFound when no
// definition matches.
func (t *Table) Lookup(path string) (Route, error) {
	_, route, ok := t.Match(path)
	if !ok {
		return Route{}, domain.ErrRouteNotFound.WithDetails(Clean(path))
	}
	return route, nil
}

// Patterns lists the patterns of all view routes, for completion and help.
func (t *Table) Patterns() []string {
	out := make([]string, 0, len(t.defs))
	for _, def := range t.defs {
		if def.Redirect == "" {
			out = append(out, def.Pattern)
		}
	}
	return out
}

// Clean normalises a user-typed path: leading slash, no trailing slash,
// no empty segments, no query or fragment.
func Clean(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	return "/" + strings.Join(parts, "/")
}

func matchPattern(pattern, path string) (map[string]string, bool) {
	ps := splitPath(pattern)
	xs := splitPath(path)
	if len(ps) != len(xs) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range ps {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = xs[i]
			continue
		}
		if seg != xs[i] {
			return nil, false
		}
	}
	return params, true
}

func splitPath(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
}
