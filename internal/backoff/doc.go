// Package backoff provides the retry delay schedule used by the API
// client for transient failures.
//
// # Window semantics
//
// Delays grow exponentially from Base and are capped at Max, with up to
// 25% additive jitter. Attempt numbering starts at 0 for the first retry.
//
// # What this package must NOT do
//
//   - Decide which errors are retryable (that classification lives in api).
//   - Be imported outside the authsync module.
package backoff
