// Package navigation implements the route table and the authentication
// guard that protects it.
//
// Guard is a pure function of the target route and the authentication
// state. Navigator applies it to path changes, following redirects, and
// remembers where the user is; the interactive shell uses it for its views.
package navigation
