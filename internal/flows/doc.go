// Package flows contains pure-function orchestrators for every session
// operation.
//
// Each flow function (RunLoad, RunLogin, RunLogout, RunUpdateUser) accepts a
// typed dependency struct and returns a result value describing what happened.
// This keeps the failure policy of each step testable with fake dependencies
// and keeps the Manager thin.
//
// # Architecture boundaries
//
// Flow functions coordinate the session store and the remote revoke call. They
// do NOT own in-memory session state, publish snapshots, log, or count metrics;
// the Manager maps results onto those concerns.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goSession (to avoid import cycles).
//   - Retry failed operations.
package flows
