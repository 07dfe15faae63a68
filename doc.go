// Package authsync owns a client's authentication session: the access/refresh
// token pair, the cached account profile, and the coordination between them.
// It decides when tokens are proactively renewed, runs login, registration,
// and logout as cache-coherent mutations, and reconciles optimistic profile
// edits against the server's response.
//
// The package is designed for concurrent client workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authsync is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (SessionState, LoginResult, MetricsSnapshot, etc.). The
// leaf concerns live in subpackages: api (the Auth API boundary), tokenstore
// (durable token persistence), cache (the keyed query cache), refresh (the
// renewal scheduler), and jwt (unverified claim peeking).
//
// # What this package must NOT do
//
//   - Verify token signatures or enforce server-side policy; the remote Auth
//     API is the authority and the engine only reacts to its answers.
//   - Retain plaintext passwords beyond the API call that consumes them.
//   - Import any sub-package that re-imports authsync (no import cycles).
//
// # Consistency contract
//
// Session reads derive authentication from the conjunction of stored tokens
// and a resolved profile; the two are never reported together unless both
// exist. Mutations order their effects so that tokens are durable before any
// dependent cache entry changes, and logout tears down local state even when
// the revocation call cannot reach the server.
package authsync
