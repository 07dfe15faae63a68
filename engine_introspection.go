package authsync

import (
	"context"
	"time"

	"github.com/virelio/authsync/jwt"
)

// TokenInfo is the safe introspection view of the stored token record. It
// carries timing and classification only; raw token material never leaves the
// store through this path.
type TokenInfo struct {
	Present      bool
	TokenType    string
	Class        TokenClass
	Refreshable  bool
	IssuedAt     time.Time
	ExpiresAt    time.Time
	TimeToExpiry time.Duration

	// Subject and JWTClaims are populated only when the access token parses
	// as a JWT. Claims are read without signature verification.
	Subject   string
	JWTClaims bool
}

// TokenInfo describes the token-info operation and its observable behavior.
//
// TokenInfo may return an error when input validation, dependency calls, or security checks fail.
// TokenInfo does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) TokenInfo(ctx context.Context) (TokenInfo, error) {
	if e == nil || e.tokens == nil {
		return TokenInfo{}, ErrEngineNotReady
	}
	t, ok, err := e.tokens.Get(ctx)
	if err != nil {
		return TokenInfo{}, err
	}
	if !ok {
		return TokenInfo{}, nil
	}
	return e.tokenInfoFor(t), nil
}

func (e *Engine) tokenInfoFor(t AuthTokens) TokenInfo {
	info := TokenInfo{
		Present:      true,
		TokenType:    t.TokenType,
		Class:        t.Class,
		Refreshable:  t.Refreshable(),
		IssuedAt:     t.IssuedAt,
		ExpiresAt:    t.ExpiresAt(),
		TimeToExpiry: t.ExpiresAt().Sub(e.now()),
	}
	if claims, err := jwt.Peek(t.AccessToken); err == nil {
		info.Subject = claims.Subject
		info.JWTClaims = true
	}
	return info
}
