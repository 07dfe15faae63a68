// Package api is the HTTP client for the remote Auth API consumed by the
// engine: login, registration, token refresh, logout, password change, and
// profile reads and writes.
//
// # Error taxonomy
//
// Every failure is reported as an [Error] carrying a [Kind]. KindAuth marks
// a credential or token rejection (401) and is never retried. KindTransient
// marks network failures, timeouts, 429, and 5xx responses; the client
// retries these a bounded number of times before surfacing them. KindRequest
// marks every other 4xx response, where the request itself was rejected and
// repeating it cannot help.
//
// # Architecture boundaries
//
// This package owns the request/response shapes and the wire transport. It
// does NOT persist tokens, cache profiles, or decide session lifecycle;
// those responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import authsync, cache, or tokenstore (no upward imports).
//   - Hold credentials beyond the single request that carries them.
//   - Retry a KindAuth or KindRequest failure.
package api
