// Package tokenstore provides durable persistence for the engine's token
// record and the compact binary encoding shared by its file and Redis
// backends.
//
// # Binary encoding
//
// Token records are stored as a compact binary format with a leading schema
// version byte. The encoder is append-only: new versions add fields but
// never reinterpret old ones.
//
// # Architecture boundaries
//
// This package owns the [Tokens] model, the [Store] contract, and the
// Memory, Bolt, and Redis implementations. It does NOT decide when tokens
// are refreshed, invalidated, or cleared; that policy belongs to the
// Engine.
//
// # What this package must NOT do
//
//   - Import authsync, api, or cache (no upward imports).
//   - Interpret or verify access tokens.
//   - Expose partially written records to readers.
package tokenstore
