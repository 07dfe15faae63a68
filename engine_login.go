package authsync

import (
	"context"
	"time"

	"github.com/virelio/authsync/api"
)

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	if e == nil || e.client == nil || e.tokens == nil {
		return LoginResult{}, ErrEngineNotReady
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricAPILatency, time.Since(start)) }()
	}

	if creds.Email == "" || creds.Password == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"identifier": creds.Email,
				"reason":     "empty_credentials",
			}
		})
		return LoginResult{}, ErrInvalidCredentials
	}

	payload, err := e.client.Login(ctx, creds)
	creds.Password = ""
	if err != nil {
		if api.IsAuth(err) {
			err = ErrInvalidCredentials
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", err, func() map[string]string {
			return map[string]string{
				"identifier": creds.Email,
				"reason":     "rejected_by_server",
			}
		})
		return LoginResult{}, err
	}

	tokens := e.normalizeGrant(payload.AccessToken, payload.RefreshToken, payload.TokenType, payload.ExpiresIn)
	if err := tokens.Validate(); err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, payload.User.ID, err, func() map[string]string {
			return map[string]string{
				"identifier": creds.Email,
				"reason":     "invalid_grant",
			}
		})
		return LoginResult{}, err
	}

	if err := e.tokens.Set(ctx, tokens); err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, payload.User.ID, err, func() map[string]string {
			return map[string]string{
				"identifier": creds.Email,
				"reason":     "token_store_failed",
			}
		})
		return LoginResult{}, err
	}

	// Tokens are durable before any dependent cache change is visible. The
	// user entry is excepted from the sweep because the fresh profile lands
	// right after.
	e.cache.InvalidatePrefix(cachePrefixAuth, cacheKeyUser)
	e.cache.Set(cacheKeyUser, payload.User)

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, payload.User.ID, nil, func() map[string]string {
		return map[string]string{
			"identifier": creds.Email,
		}
	})

	return LoginResult{Tokens: tokens, User: payload.User}, nil
}
