package authsync

import (
	"context"

	"github.com/virelio/authsync/cache"
)

// UpdateProfile describes the update-profile operation and its observable
// behavior. The patched profile is visible in the cache before the server
// round-trip completes; rejection restores the exact pre-write snapshot,
// including the case where no entry existed at all.
//
// UpdateProfile may return an error when input validation, dependency calls, or security checks fail.
// UpdateProfile does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) UpdateProfile(ctx context.Context, patch ProfilePatch) (UserProfile, error) {
	if e == nil || e.client == nil || e.tokens == nil {
		return UserProfile{}, ErrEngineNotReady
	}

	if patch.IsZero() {
		e.emitAudit(ctx, auditEventProfileUpdateFailure, false, e.cachedUserID(), ErrEmptyProfilePatch, func() map[string]string {
			return map[string]string{"reason": "empty_patch"}
		})
		return UserProfile{}, ErrEmptyProfilePatch
	}

	_, ok, err := e.tokens.Get(ctx)
	if err != nil {
		e.emitAudit(ctx, auditEventProfileUpdateFailure, false, e.cachedUserID(), err, func() map[string]string {
			return map[string]string{"reason": "token_store_failed"}
		})
		return UserProfile{}, err
	}
	if !ok {
		e.emitAudit(ctx, auditEventProfileUpdateFailure, false, "", ErrNotAuthenticated, func() map[string]string {
			return map[string]string{"reason": "no_session"}
		})
		return UserProfile{}, ErrNotAuthenticated
	}

	// A fetch already in flight would overwrite the speculative value when it
	// lands; supersede it before writing.
	e.cancelFetch(cacheKeyUser)

	snapshot, hadEntry := e.cache.Get(cacheKeyUser)
	base, typed := cache.Value[UserProfile](snapshot)
	if !hadEntry || !typed {
		base, err = e.fetchUser(ctx)
		if err != nil {
			e.emitAudit(ctx, auditEventProfileUpdateFailure, false, e.cachedUserID(), err, func() map[string]string {
				return map[string]string{"reason": "base_fetch_failed"}
			})
			return UserProfile{}, err
		}
		// The fetch wrote the cache; re-snapshot so rollback restores it.
		snapshot, hadEntry = e.cache.Get(cacheKeyUser)
	}

	optimistic := patch.Apply(base)
	e.cache.Set(cacheKeyUser, optimistic)
	e.metricInc(MetricOptimisticApplied)
	e.emitAudit(ctx, auditEventProfileUpdateApplied, true, base.ID, nil, nil)

	updated, err := e.client.UpdateProfile(ctx, patch)
	if err != nil {
		if hadEntry {
			e.cache.Restore(snapshot)
		} else {
			e.cache.Delete(cacheKeyUser)
		}
		e.metricInc(MetricOptimisticRollback)
		e.emitAudit(ctx, auditEventProfileUpdateRollback, false, base.ID, err, nil)
		e.settleProfile(base.ID)
		return UserProfile{}, err
	}

	e.cache.Set(cacheKeyUser, updated)
	e.settleProfile(base.ID)
	return updated, nil
}

// settleProfile refetches the canonical profile after an optimistic write has
// resolved, so the cache converges on whatever the server actually persisted.
func (e *Engine) settleProfile(userID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.config.Query.FetchTimeout)
		defer cancel()
		if _, err := e.fetchUser(ctx); err != nil {
			return
		}
		e.metricInc(MetricOptimisticSettled)
		e.emitAudit(ctx, auditEventProfileUpdateSettled, true, userID, nil, nil)
	}()
}
