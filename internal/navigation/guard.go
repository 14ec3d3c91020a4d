package navigation

// Decision is the guard's verdict for one navigation.
type Decision struct {
	// Redirect is the path to go to instead; "" means proceed.
	Redirect string
}

// Allowed reports whether navigation may proceed to the requested route.
func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// Allow proceeds to the requested route.
var Allow = Decision{}

// RedirectTo sends the user to path instead.
func RedirectTo(path string) Decision {
	return Decision{Redirect: path}
}

// Guard decides whether a navigation to `to` may proceed.
//
// Unauthenticated users are sent from protected routes to the login page,
// and authenticated users are sent from the login page to the product list.
// The first rule wins; everything else proceeds.
func Guard(to Route, authenticated bool) Decision {
	switch {
	case to.RequiresAuth && !authenticated:
		return RedirectTo(PathLogin)
	case to.Path == PathLogin && authenticated:
		return RedirectTo(PathProducts)
	default:
		return Allow
	}
}
