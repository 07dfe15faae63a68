package tokenstore

import (
	"errors"
	"time"
)

// Class defines a public type used by authsync APIs.
//
// Class instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Class uint8

const (
	// ClassSession is a server-issued access/refresh pair that the engine
	// renews through the refresh flow.
	ClassSession Class = iota
	// ClassStatic is an externally issued credential with no renewal path.
	// The refresh scheduler and the refresh mutation never touch it.
	ClassStatic
)

// Tokens is the single token record owned by the engine: the access/refresh
// pair plus the metadata needed to decide when it expires.
//
// A Tokens value is either fully populated or absent. Stores reject partial
// records on Set and report absence through the second return value of Get.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    time.Duration
	IssuedAt     time.Time
	Class        Class
}

// Validate checks the all-or-nothing record invariant. A static-class record
// may omit the refresh token; everything else is mandatory.
func (t Tokens) Validate() error {
	if t.AccessToken == "" {
		return errors.New("access token is empty")
	}
	if t.TokenType == "" {
		return errors.New("token type is empty")
	}
	if t.ExpiresIn <= 0 {
		return errors.New("ExpiresIn must be > 0")
	}
	if t.IssuedAt.IsZero() {
		return errors.New("IssuedAt must be set")
	}
	if t.Class == ClassSession && t.RefreshToken == "" {
		return errors.New("session-class record requires a refresh token")
	}
	if t.Class != ClassSession && t.Class != ClassStatic {
		return errors.New("unknown token class")
	}
	return nil
}

// ExpiresAt returns the instant the access token stops being valid.
func (t Tokens) ExpiresAt() time.Time {
	return t.IssuedAt.Add(t.ExpiresIn)
}

// ExpiresWithin reports whether the access token expires at or before
// now+skew. It is the refresh predicate input: true means the token is
// inside the proactive-renewal window.
func (t Tokens) ExpiresWithin(now time.Time, skew time.Duration) bool {
	return !now.Before(t.ExpiresAt().Add(-skew))
}

// Refreshable reports whether the record can go through the refresh flow.
// Static-class credentials and records without a refresh token are
// structurally exempt.
func (t Tokens) Refreshable() bool {
	return t.Class == ClassSession && t.RefreshToken != ""
}
