package tokenstore

import (
	"context"
	"errors"
)

// ErrStoreUnavailable is an exported constant or variable used by the session engine.
var ErrStoreUnavailable = errors.New("token store unavailable")

// ErrInvalidTokens is returned by Set when the record violates the
// all-or-nothing invariant.
var ErrInvalidTokens = errors.New("invalid token record")

// ErrCorruptRecord is returned when a persisted record cannot be decoded.
var ErrCorruptRecord = errors.New("corrupt token record")

// Store is the durable holder of the current token record.
//
// Set overwrites atomically: readers observe either the previous record or
// the new one, never a partial write. Clear is idempotent. Get reports
// absence through the second return value; absence is not an error.
type Store interface {
	Get(ctx context.Context) (Tokens, bool, error)
	Set(ctx context.Context, t Tokens) error
	Clear(ctx context.Context) error
}
