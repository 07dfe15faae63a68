// Package cache provides the keyed query cache shared by every engine
// component: session lookups, profile projections, and anything else
// keyed under a hierarchical namespace.
//
// # Design
//
// Entries carry two deadlines. StaleAt ends the freshness window: a stale
// entry is still served for instant reuse but is eligible for background
// revalidation. GCAt ends retention: past it the entry reads as absent
// and the sweeper removes it. Keys are dotted paths built with [K];
// invalidating the "auth" prefix marks every auth-namespaced entry stale
// in one operation.
//
// # Architecture boundaries
//
// The cache stores whole entries and knows nothing about what they mean.
// Fetching, retry policy, and merge semantics live in the engine. The only
// mutations are whole-entry set, invalidate, delete, and purge; there are
// no partial in-place edits.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import authsync or any sibling package.
//   - Interpret cached values.
package cache
