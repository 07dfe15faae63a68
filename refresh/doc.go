// Package refresh keeps the engine's access token valid without caller
// involvement: a cancellable scheduler that periodically inspects the token
// record and hands renewal to the engine's refresh operation when the
// record nears expiry.
//
// # Renewal window
//
// A record is due once now >= issuedAt + expiresIn - skew. The skew keeps
// renewal ahead of hard expiry so authenticated calls never race the
// deadline. Records that are not refreshable (static class, or a missing
// refresh token) are never due; the scheduler reports them through the
// OnSkip hook and otherwise leaves them alone.
//
// # Architecture boundaries
//
// This package owns scheduling only. The refresh mutation itself, its
// single-flight deduplication, and failure handling (clearing the store,
// invalidating caches) belong to the run function supplied by the Engine.
//
// # What this package must NOT do
//
//   - Import authsync, api, or cache (no upward imports).
//   - Mutate the token store.
//   - Retry a failed renewal; the next tick re-evaluates instead.
package refresh
