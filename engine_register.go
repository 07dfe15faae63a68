package authsync

import (
	"context"
	"time"
)

// Register describes the register operation and its observable behavior.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Register(ctx context.Context, reg Registration) (LoginResult, error) {
	if e == nil || e.client == nil || e.tokens == nil {
		return LoginResult{}, ErrEngineNotReady
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricAPILatency, time.Since(start)) }()
	}

	if reg.Email == "" || reg.Password == "" {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", ErrInvalidRegistration, func() map[string]string {
			return map[string]string{
				"identifier": reg.Email,
				"reason":     "empty_registration",
			}
		})
		return LoginResult{}, ErrInvalidRegistration
	}

	payload, err := e.client.Register(ctx, reg)
	reg.Password = ""
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, func() map[string]string {
			return map[string]string{
				"identifier": reg.Email,
				"reason":     "rejected_by_server",
			}
		})
		return LoginResult{}, err
	}

	tokens := e.normalizeGrant(payload.AccessToken, payload.RefreshToken, payload.TokenType, payload.ExpiresIn)
	if err := tokens.Validate(); err != nil {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, payload.User.ID, err, func() map[string]string {
			return map[string]string{
				"identifier": reg.Email,
				"reason":     "invalid_grant",
			}
		})
		return LoginResult{}, err
	}

	if err := e.tokens.Set(ctx, tokens); err != nil {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, payload.User.ID, err, func() map[string]string {
			return map[string]string{
				"identifier": reg.Email,
				"reason":     "token_store_failed",
			}
		})
		return LoginResult{}, err
	}

	e.cache.InvalidatePrefix(cachePrefixAuth, cacheKeyUser)
	e.cache.Set(cacheKeyUser, payload.User)

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, payload.User.ID, nil, func() map[string]string {
		return map[string]string{
			"identifier": reg.Email,
		}
	})

	return LoginResult{Tokens: tokens, User: payload.User}, nil
}
