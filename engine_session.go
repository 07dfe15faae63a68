package authsync

import (
	"context"
	"errors"
	"time"

	"github.com/virelio/authsync/api"
	"github.com/virelio/authsync/cache"
)

// Session describes the session operation and its observable behavior. It is
// a pure read: no network traffic, no cache mutation.
//
// Session does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Session(ctx context.Context) SessionState {
	var state SessionState
	if e == nil || e.tokens == nil {
		return state
	}

	if t, ok, err := e.tokens.Get(ctx); err == nil && ok {
		state.TokensPresent = true
		state.TokenExpiresAt = t.ExpiresAt()
	}
	if entry, ok := e.cache.Get(cacheKeyUser); ok {
		if profile, ok := cache.Value[UserProfile](entry); ok {
			state.UserPresent = true
			state.User = projectUser(profile)
		}
	}

	state.Authenticated = state.TokensPresent && state.UserPresent
	return state
}

// CurrentUser describes the current-user operation and its observable
// behavior. Fresh cache entries are served directly, stale entries are served
// while a background refetch runs, and a miss blocks on the network.
//
// CurrentUser may return an error when input validation, dependency calls, or security checks fail.
// CurrentUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CurrentUser(ctx context.Context) (UserProfile, error) {
	if e == nil || e.client == nil || e.tokens == nil {
		return UserProfile{}, ErrEngineNotReady
	}

	_, ok, err := e.tokens.Get(ctx)
	if err != nil {
		return UserProfile{}, err
	}
	if !ok {
		return UserProfile{}, ErrNotAuthenticated
	}

	if entry, found := e.cache.Get(cacheKeyUser); found {
		if profile, typed := cache.Value[UserProfile](entry); typed {
			if entry.Fresh(e.now()) {
				e.metricInc(MetricCacheHit)
				return profile, nil
			}
			e.metricInc(MetricCacheStaleHit)
			e.revalidateUser()
			return profile, nil
		}
	}

	e.metricInc(MetricCacheMiss)
	return e.fetchUser(ctx)
}

// fetchUser collapses concurrent profile fetches into one server round-trip.
func (e *Engine) fetchUser(ctx context.Context) (UserProfile, error) {
	v, err, _ := e.fetchGroup.Do(string(cacheKeyUser), func() (any, error) {
		return e.doFetchUser(ctx)
	})
	if err != nil {
		return UserProfile{}, err
	}
	return v.(UserProfile), nil
}

func (e *Engine) doFetchUser(ctx context.Context) (UserProfile, error) {
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricAPILatency, time.Since(start)) }()
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	h := e.registerFetch(cacheKeyUser, cancel)
	defer func() {
		e.unregisterFetch(cacheKeyUser, h)
		cancel()
	}()

	profile, err := e.client.CurrentUser(fetchCtx)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			// Superseded by an optimistic write; not a failure of the session.
			return UserProfile{}, err
		}
		e.metricInc(MetricUserFetchFailure)
		e.emitAudit(ctx, auditEventUserFetchFailure, false, e.cachedUserID(), err, nil)
		if api.IsAuth(err) {
			e.expireSession(ctx, "unauthorized")
		}
		return UserProfile{}, err
	}

	e.cache.Set(cacheKeyUser, profile)
	e.metricInc(MetricUserFetchSuccess)
	return profile, nil
}

// revalidateUser refetches the profile off the request path. Errors are
// already counted and audited inside the fetch, so the result is dropped.
func (e *Engine) revalidateUser() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.config.Query.FetchTimeout)
		defer cancel()
		_, _ = e.fetchUser(ctx)
	}()
}
