package authsync

import (
	"context"

	"github.com/virelio/authsync/cache"
	"github.com/virelio/authsync/refresh"
)

func (e *Engine) SessionReport(ctx context.Context) SessionReport {
	var r SessionReport
	if e == nil || e.tokens == nil {
		return r
	}

	r.RefreshInterval = e.config.Refresh.Interval
	r.RefreshSkew = e.config.Refresh.Skew
	r.AutoRefreshActive = e.scheduler != nil && e.scheduler.Running()
	r.AuditDropped = e.AuditDropped()
	r.CacheEntries = e.cache.Len()

	if t, ok, err := e.tokens.Get(ctx); err == nil && ok {
		r.Token = e.tokenInfoFor(t)
		r.RefreshDue = refresh.ShouldRefresh(t, e.now(), e.config.Refresh.Skew)
	}

	if entry, ok := e.cache.Get(cacheKeyUser); ok {
		if _, typed := cache.Value[UserProfile](entry); typed {
			r.UserCached = true
			r.UserFresh = entry.Fresh(e.now())
		}
	}

	r.Authenticated = r.Token.Present && r.UserCached
	return r
}
