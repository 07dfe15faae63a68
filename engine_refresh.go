package authsync

import (
	"context"
	"errors"
	"time"
)

const refreshFlightKey = "refresh"

// Refresh describes the refresh operation and its observable behavior.
// Concurrent callers share one server round-trip; every waiter receives the
// rotated grant from that single flight.
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Refresh(ctx context.Context) (AuthTokens, error) {
	if e == nil || e.client == nil || e.tokens == nil {
		return AuthTokens{}, ErrEngineNotReady
	}
	v, err, _ := e.refreshGroup.Do(refreshFlightKey, func() (any, error) {
		return e.doRefresh(ctx)
	})
	if err != nil {
		return AuthTokens{}, err
	}
	return v.(AuthTokens), nil
}

func (e *Engine) doRefresh(ctx context.Context) (AuthTokens, error) {
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricAPILatency, time.Since(start)) }()
	}

	current, ok, err := e.tokens.Get(ctx)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", err, func() map[string]string {
			return map[string]string{"reason": "token_store_failed"}
		})
		return AuthTokens{}, err
	}
	if !ok {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", ErrNotAuthenticated, func() map[string]string {
			return map[string]string{"reason": "no_tokens"}
		})
		return AuthTokens{}, ErrNotAuthenticated
	}
	if !current.Refreshable() {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, e.cachedUserID(), ErrNotRefreshable, func() map[string]string {
			return map[string]string{"reason": "not_refreshable"}
		})
		return AuthTokens{}, ErrNotRefreshable
	}

	payload, err := e.client.RefreshToken(ctx, current.RefreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, e.cachedUserID(), err, func() map[string]string {
			return map[string]string{"reason": "rejected_by_server"}
		})
		// A cancelled caller is not a server verdict on the grant. Everything
		// else ends the session: a grant the server will not renew is dead.
		if !errors.Is(err, context.Canceled) {
			e.expireSession(ctx, "refresh_failed")
		}
		return AuthTokens{}, err
	}

	rotated := payload.RefreshToken
	if rotated == "" {
		// Server may not rotate the refresh token on every grant.
		rotated = current.RefreshToken
	}
	next := e.normalizeGrant(payload.AccessToken, rotated, payload.TokenType, payload.ExpiresIn)
	if err := next.Validate(); err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, e.cachedUserID(), err, func() map[string]string {
			return map[string]string{"reason": "invalid_grant"}
		})
		e.expireSession(ctx, "invalid_grant")
		return AuthTokens{}, err
	}

	if err := e.tokens.Set(ctx, next); err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, e.cachedUserID(), err, func() map[string]string {
			return map[string]string{"reason": "token_store_failed"}
		})
		return AuthTokens{}, err
	}

	// Identity may have changed server-side between grants. Entries go stale
	// rather than away, so reads keep serving while revalidation runs.
	e.cache.InvalidatePrefix(cachePrefixAuth)
	e.metricInc(MetricCacheInvalidation)

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, e.cachedUserID(), nil, nil)
	return next, nil
}
