// Package goSession provides a client-side session manager: it owns the current
// user's identity, access token and refresh token, keeps them in agreement with a
// persistent key-value store, and publishes every transition to subscribers.
//
// The package is designed for concurrent consumers: Manager methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Manager], [Builder], [Config], and value
// types ([Session], [MetricsSnapshot], [AuditEvent]). Flow orchestration and audit
// dispatch live under internal/; record encoding lives in session/; key-value backends
// live in kvstore/.
//
// # What this package must NOT do
//
//   - Validate token signatures. Tokens are opaque; jwt/ only inspects claims.
//   - Retry a failed operation. Retry policy belongs to the caller.
//   - Leave a published snapshot authenticated after Logout returns.
//   - Import any sub-package that re-imports goSession (no import cycles).
package goSession
