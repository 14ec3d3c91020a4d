package navigation

import (
	"fmt"
	"sync"

	"github.com/yndnr/catdesk-go/internal/core/domain"
)

// maxHops bounds redirect chains.
const maxHops = 8

// AuthState reports whether the user is authenticated.
type AuthState interface {
	IsAuthenticated() bool
}

// Navigator resolves navigations through the route table and guard and
// keeps the current route and a back stack.
type Navigator struct {
	table *Table
	auth  AuthState

	mu      sync.Mutex
	current Route
	history []Route
}

// NewNavigator creates a navigator with no current route.
func NewNavigator(table *Table, auth AuthState) *Navigator {
	return &Navigator{table: table, auth: auth}
}

// Current returns the current route; its Path is "" before the first
// navigation.
func (n *Navigator) Current() Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Resolve works out where a navigation to path ends up, applying static
// redirects and the guard, without changing the current route. redirected
// is true when the final route differs from the one requested.
func (n *Navigator) Resolve(path string) (route Route, redirected bool, err error) {
	target := path
	for hop := 0; hop < maxHops; hop++ {
		def, r, ok := n.table.Match(target)
		if !ok {
			return Route{}, false, domain.ErrRouteNotFound.WithDetails(Clean(target))
		}
		if def.Redirect != "" {
			target = def.Redirect
			redirected = true
			continue
		}
		d := Guard(r, n.auth.IsAuthenticated())
		if d.Allowed() {
			return r, redirected, nil
		}
		target = d.Redirect
		redirected = true
	}
	return Route{}, false, domain.ErrRouteNotFound.WithDetails(fmt.Sprintf("redirect loop from %s", Clean(path)))
}

// Navigate resolves path and makes the result current. The previous route
// is pushed onto the back stack unless it is the same path.
func (n *Navigator) Navigate(path string) (Route, bool, error) {
	route, redirected, err := n.Resolve(path)
	if err != nil {
		return Route{}, false, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current.Path != "" && n.current.Path != route.Path {
		n.history = append(n.history, n.current)
	}
	n.current = route
	return route, redirected, nil
}

// Back returns to the previous route, re-checking it against the guard.
// ok is false when there is nowhere to go back to.
func (n *Navigator) Back() (route Route, ok bool, err error) {
	n.mu.Lock()
	if len(n.history) == 0 {
		n.mu.Unlock()
		return n.current, false, nil
	}
	prev := n.history[len(n.history)-1]
	n.history = n.history[:len(n.history)-1]
	n.mu.Unlock()

	route, _, err = n.Resolve(prev.Path)
	if err != nil {
		return Route{}, false, err
	}

	n.mu.Lock()
	n.current = route
	n.mu.Unlock()
	return route, true, nil
}

// Recheck re-applies the guard to the current route, e.g. after login or
// logout, and moves if it now redirects.
func (n *Navigator) Recheck() (Route, bool, error) {
	cur := n.Current()
	if cur.Path == "" {
		return n.Navigate(PathRoot)
	}
	return n.Navigate(cur.Path)
}
