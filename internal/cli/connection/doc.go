// Package connection is the HTTP transport between catdesk-cli and the
// catalog server.
//
// HTTPClient sends JSON requests with a bearer token taken from a
// TokenSource at call time, a per-request X-Request-ID, and an optional
// client-side rate limit. Non-2xx responses are decoded into *APIError,
// carrying the server's message when it sent one.
package connection
