// Package domain defines the core domain models for catdesk.
//
// Domain models are plain values without IO dependencies:
//
//   - Session, Credentials, User: the authenticated session and its profile
//   - Product, ProductID, ProductPayload: opaque catalog records
//   - TokenClaims: display-only view of a JWT access token
//   - Errors: the AuthError / CorruptSessionError / RemoteCallError taxonomy
package domain
