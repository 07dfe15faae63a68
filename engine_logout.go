package authsync

import (
	"context"
	"errors"
)

// Logout describes the logout operation and its observable behavior. Local
// teardown is unconditional: tokens and cached identity are gone when Logout
// returns, whether or not the server acknowledged the revocation.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Logout(ctx context.Context) error {
	return e.logout(ctx, false)
}

// LogoutAll describes the logout-all operation and its observable behavior.
// It revokes every server-side session for the account, then tears down local
// state the same way Logout does.
//
// LogoutAll may return an error when input validation, dependency calls, or security checks fail.
// LogoutAll does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) LogoutAll(ctx context.Context) error {
	return e.logout(ctx, true)
}

func (e *Engine) logout(ctx context.Context, all bool) error {
	if e == nil || e.client == nil || e.tokens == nil {
		return ErrEngineNotReady
	}

	userID := e.cachedUserID()

	_, ok, getErr := e.tokens.Get(ctx)
	tokensPresent := getErr == nil && ok

	var remoteErr error
	if tokensPresent {
		if all {
			remoteErr = e.client.LogoutAll(ctx)
		} else {
			remoteErr = e.client.Logout(ctx)
		}
	}

	clearErr := e.tokens.Clear(ctx)
	e.cache.Purge()
	e.metricInc(MetricCachePurge)

	scope := "session"
	event := auditEventLogout
	metric := MetricLogout
	if all {
		scope = "all"
		event = auditEventLogoutAll
		metric = MetricLogoutAll
	}

	if remoteErr != nil {
		e.emitAudit(ctx, auditEventLogoutRemoteFailed, false, userID, remoteErr, func() map[string]string {
			return map[string]string{"scope": scope}
		})
	}

	err := errors.Join(remoteErr, clearErr)
	e.metricInc(metric)
	e.emitAudit(ctx, event, err == nil, userID, err, func() map[string]string {
		return map[string]string{"scope": scope}
	})
	return err
}
