package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned when a token does not parse as a JWT. Opaque
// access tokens are legal; callers treat this as "no claims available".
var ErrNotJWT = errors.New("token is not a parseable JWT")

// Info holds the registered claims a client may act on without verifying
// the token. Zero timestamps mean the claim was absent.
type Info struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

var parser = jwt.NewParser(jwt.WithoutClaimsValidation())

// Peek reads the registered claims of raw without verifying its signature.
//
// Expired or not-yet-valid tokens still parse; deciding what to do with
// their lifetimes is the caller's job.
func Peek(raw string) (Info, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return Info{}, ErrNotJWT
	}

	info := Info{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// Expiry returns the exp claim of raw. ok is false for opaque tokens and
// JWTs without an exp claim.
func Expiry(raw string) (time.Time, bool) {
	info, err := Peek(raw)
	if err != nil || info.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return info.ExpiresAt, true
}
