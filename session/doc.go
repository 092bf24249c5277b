// Package session persists the client session record (user, access token,
// refresh token) through a [kvstore.Store] under three fixed keys.
//
// # Architecture boundaries
//
// This package owns key layout, user serialization, and the concurrent fan-out
// of reads and writes. It reports outcomes as explicit values ([ReadResult],
// wrapped sentinel errors) and never decides policy: whether a failure is
// absorbed or propagated is the caller's choice.
//
// # What this package must NOT do
//
//   - Hold in-memory session state between calls.
//   - Retry failed storage operations.
//   - Import goSession or internal/flows.
package session
