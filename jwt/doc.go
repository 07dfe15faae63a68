// Package jwt provides unverified claim peeking for access tokens that
// happen to be JWTs.
//
// # Design
//
// The engine is a client: it never holds verification keys and must not
// judge a token's authenticity. That is the Auth API's job. What the
// client can do is read the registered claims of a well-formed JWT to
// sanity-check server-reported lifetimes and to power diagnostics. Peek
// therefore parses without verifying and treats opaque (non-JWT) tokens
// as a normal condition, not an error worth surfacing to users.
//
// # What this package must NOT do
//
//   - Verify signatures or hold key material.
//   - Reject a session because its access token is not a JWT.
//   - Import authsync or any sibling package.
package jwt
