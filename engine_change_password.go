package authsync

import "context"

// ChangePassword describes the change-password operation and its observable
// behavior.
//
// ChangePassword may return an error when input validation, dependency calls, or security checks fail.
// ChangePassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if e == nil || e.client == nil || e.tokens == nil {
		return ErrEngineNotReady
	}

	userID := e.cachedUserID()

	if oldPassword == "" || newPassword == "" {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, ErrPasswordPolicy, func() map[string]string {
			return map[string]string{"reason": "empty_input"}
		})
		return ErrPasswordPolicy
	}
	if newPassword == oldPassword {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, ErrPasswordReuse, func() map[string]string {
			return map[string]string{"reason": "password_reuse"}
		})
		return ErrPasswordReuse
	}

	_, ok, err := e.tokens.Get(ctx)
	if err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, err, func() map[string]string {
			return map[string]string{"reason": "token_store_failed"}
		})
		return err
	}
	if !ok {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, ErrNotAuthenticated, func() map[string]string {
			return map[string]string{"reason": "no_session"}
		})
		return ErrNotAuthenticated
	}

	err = e.client.ChangePassword(ctx, oldPassword, newPassword)
	oldPassword = ""
	newPassword = ""
	if err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, err, func() map[string]string {
			return map[string]string{"reason": "rejected_by_server"}
		})
		return err
	}

	// Server may stamp passwordChangedAt or revoke other sessions; the next
	// profile read refetches rather than trusting the cached copy.
	e.cache.Invalidate(cacheKeyUser)
	e.metricInc(MetricCacheInvalidation)

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, userID, nil, nil)
	return nil
}
