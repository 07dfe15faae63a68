package authsync

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/virelio/authsync/api"
	"github.com/virelio/authsync/cache"
	"github.com/virelio/authsync/jwt"
	"github.com/virelio/authsync/refresh"
	"github.com/virelio/authsync/tokenstore"
)

var (
	cachePrefixAuth = cache.K("auth")
	cacheKeyUser    = cache.K("auth", "user")
)

// Engine defines a public type used by authsync APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config    Config
	tokens    tokenstore.Store
	client    api.Client
	cache     *cache.Cache
	scheduler *refresh.Scheduler
	audit     *auditDispatcher
	metrics   *Metrics
	now       func() time.Time

	refreshGroup singleflight.Group
	fetchGroup   singleflight.Group

	fetchMu sync.Mutex
	fetches map[cache.Key]*fetchHandle
}

type fetchHandle struct {
	cancel context.CancelFunc
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.scheduler != nil {
		e.scheduler.Stop()
	}
	e.cancelFetches()
	if e.cache != nil {
		e.cache.Close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// AccessToken returns the current bearer token for outgoing requests. It
// satisfies [api.TokenSource], so an HTTP client built by the engine reads
// credentials straight from the token store.
func (e *Engine) AccessToken(ctx context.Context) (string, bool) {
	if e == nil || e.tokens == nil {
		return "", false
	}
	t, ok, err := e.tokens.Get(ctx)
	if err != nil || !ok {
		return "", false
	}
	return t.AccessToken, true
}

// StartAutoRefresh describes the startautorefresh operation and its observable behavior.
//
// StartAutoRefresh may return an error when input validation, dependency calls, or security checks fail.
// StartAutoRefresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) StartAutoRefresh(ctx context.Context) {
	if e == nil || e.scheduler == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	e.scheduler.Start(ctx)
}

// StopAutoRefresh describes the stopautorefresh operation and its observable behavior.
//
// StopAutoRefresh may return an error when input validation, dependency calls, or security checks fail.
// StopAutoRefresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) StopAutoRefresh() {
	if e == nil || e.scheduler == nil {
		return
	}
	e.scheduler.Stop()
}

func (e *Engine) runScheduledRefresh(ctx context.Context) error {
	_, err := e.Refresh(ctx)
	return err
}

func (e *Engine) noteRefreshSkip(tokens tokenstore.Tokens) {
	e.metricInc(MetricRefreshSkipped)
	e.emitAudit(context.Background(), auditEventRefreshSkipped, true, e.cachedUserID(), nil, func() map[string]string {
		reason := "missing_refresh_token"
		if tokens.Class == tokenstore.ClassStatic {
			reason = "static_grant"
		}
		return map[string]string{
			"reason": reason,
		}
	})
}

// normalizeGrant turns a raw server grant into the stored record: the issue
// time is stamped from the engine clock, the token type defaults to Bearer,
// and when the access token is a decodable JWT whose exp lands earlier than
// the advertised lifetime, the shorter deadline wins.
func (e *Engine) normalizeGrant(accessToken, refreshToken, tokenType string, expiresIn int64) tokenstore.Tokens {
	now := e.now()
	t := tokenstore.Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenType,
		ExpiresIn:    time.Duration(expiresIn) * time.Second,
		IssuedAt:     now,
		Class:        tokenstore.ClassSession,
	}
	if t.TokenType == "" {
		t.TokenType = "Bearer"
	}
	if exp, ok := jwt.Expiry(accessToken); ok {
		if remaining := exp.Sub(now); remaining > 0 && remaining < t.ExpiresIn {
			t.ExpiresIn = remaining
		}
	}
	return t
}

// expireSession tears the session down after an unrecoverable auth failure.
// Cached entries are marked stale rather than deleted; with the token record
// gone the session still reads as unauthenticated.
func (e *Engine) expireSession(ctx context.Context, reason string) {
	if err := e.tokens.Clear(ctx); err != nil {
		log.Print("authsync: token clear failed during session teardown")
	}
	e.cache.InvalidatePrefix(cachePrefixAuth)
	e.metricInc(MetricCacheInvalidation)
	e.metricInc(MetricSessionExpired)
	e.emitAudit(ctx, auditEventSessionExpired, false, e.cachedUserID(), nil, func() map[string]string {
		return map[string]string{
			"reason": reason,
		}
	})
}

func (e *Engine) cachedUserID() string {
	if e == nil || e.cache == nil {
		return ""
	}
	entry, ok := e.cache.Get(cacheKeyUser)
	if !ok {
		return ""
	}
	profile, ok := cache.Value[UserProfile](entry)
	if !ok {
		return ""
	}
	return profile.ID
}

func (e *Engine) registerFetch(key cache.Key, cancel context.CancelFunc) *fetchHandle {
	h := &fetchHandle{cancel: cancel}
	e.fetchMu.Lock()
	if prev, ok := e.fetches[key]; ok {
		prev.cancel()
	}
	e.fetches[key] = h
	e.fetchMu.Unlock()
	return h
}

func (e *Engine) unregisterFetch(key cache.Key, h *fetchHandle) {
	e.fetchMu.Lock()
	if cur, ok := e.fetches[key]; ok && cur == h {
		delete(e.fetches, key)
	}
	e.fetchMu.Unlock()
}

func (e *Engine) cancelFetch(key cache.Key) {
	e.fetchMu.Lock()
	if h, ok := e.fetches[key]; ok {
		h.cancel()
		delete(e.fetches, key)
	}
	e.fetchMu.Unlock()
}

func (e *Engine) cancelFetches() {
	e.fetchMu.Lock()
	for key, h := range e.fetches {
		h.cancel()
		delete(e.fetches, key)
	}
	e.fetchMu.Unlock()
}
