// Package middleware exposes HTTP client plumbing that authenticates
// outgoing requests with the session engine's bearer token.
//
// # Adapters
//
//   - [Transport] is an http.RoundTripper that attaches the access token
//     and replays a request once after a refresh when the server says 401.
//   - [NewClient] wraps [Transport] in a ready *http.Client.
//
// # Architecture boundaries
//
// This package translates engine state into HTTP headers. It does NOT
// implement authentication logic itself; token storage, refresh flights,
// and session teardown are all delegated to the engine behind [Session].
//
// # What this package must NOT do
//
//   - Parse or mint tokens (the engine owns token material).
//   - Retry more than once per request (backoff belongs to the caller).
//   - Interpret response bodies beyond the status code.
package middleware
