// Package middleware adapts a [goSession.Manager] to net/http.
//
// # Outbound
//
//   - [Bearer]: an [http.RoundTripper] that attaches the live access token to
//     every request and reports 401 responses through a hook.
//
// # Inbound
//
//   - [RequireSession]: rejects requests while no session is authenticated.
//   - [RequirePermission]: additionally checks one resource/action pair.
//
// Inbound guards serve local surfaces (a desktop companion server, a CLI's
// status endpoint) that act on behalf of the signed-in user. They consult
// the manager's snapshot; they never parse tokens themselves.
//
// # What this package must NOT do
//
//   - Validate or refresh tokens.
//   - Mutate the session; reacting to a 401 is the hook's business.
package middleware
