// Package kvstore provides the persistent key-value layer that session state is
// written through, plus the concrete backends goSession ships with.
//
// # Contract
//
// A [Store] is an async-safe string store keyed by name. Get reports a missing
// key with [ErrNotFound]; Remove of a missing key succeeds. Every method accepts
// a context and may fail; callers decide whether a failure is fatal.
//
// # Backends
//
//   - [Memory]: process-local map, used for tests and ephemeral sessions.
//   - [File]: single JSON document on disk with atomic replace.
//   - [Redis]: namespaced keys on a go-redis client.
//   - [Encrypted]: XChaCha20-Poly1305 wrapper over any other Store.
//
// # What this package must NOT do
//
//   - Know about users, tokens, or key naming. Layout belongs to package session.
//   - Import goSession or session.
package kvstore
