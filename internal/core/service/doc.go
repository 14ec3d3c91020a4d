// Package service holds the two client-side stores.
//
// SessionStore owns the authenticated session and its durable copy.
// CatalogStore performs catalog calls with the session's bearer token and
// mirrors successful mutations into a local, ordered product list.
//
// Both are plain objects built once by the CLI and passed to whatever
// needs them; their IO dependencies are interfaces so tests can swap in
// an httptest server and an in-memory storage engine.
package service
