package internaldefs

import (
	authsync "github.com/virelio/authsync"
)

// CounterDef defines a public type used by authsync APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   authsync.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by authsync APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   authsync.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session engine.
var CounterDefs = []CounterDef{
	{ID: authsync.MetricLoginSuccess, Name: "authsync_login_success_total", Help: "Successful login operations."},
	{ID: authsync.MetricLoginFailure, Name: "authsync_login_failure_total", Help: "Failed login operations."},
	{ID: authsync.MetricRegisterSuccess, Name: "authsync_register_success_total", Help: "Successful registrations."},
	{ID: authsync.MetricRegisterFailure, Name: "authsync_register_failure_total", Help: "Failed registrations."},
	{ID: authsync.MetricRefreshSuccess, Name: "authsync_refresh_success_total", Help: "Successful token refreshes."},
	{ID: authsync.MetricRefreshFailure, Name: "authsync_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: authsync.MetricRefreshSkipped, Name: "authsync_refresh_skipped_total", Help: "Auto-refresh ticks skipped for non-refreshable grants."},
	{ID: authsync.MetricUserFetchSuccess, Name: "authsync_user_fetch_success_total", Help: "Successful profile fetches."},
	{ID: authsync.MetricUserFetchFailure, Name: "authsync_user_fetch_failure_total", Help: "Failed profile fetches."},
	{ID: authsync.MetricAPIRetry, Name: "authsync_api_retry_total", Help: "Transient API failures retried."},
	{ID: authsync.MetricCacheHit, Name: "authsync_cache_hit_total", Help: "Profile reads served from a fresh cache entry."},
	{ID: authsync.MetricCacheStaleHit, Name: "authsync_cache_stale_hit_total", Help: "Profile reads served stale while revalidating."},
	{ID: authsync.MetricCacheMiss, Name: "authsync_cache_miss_total", Help: "Profile reads that required a blocking fetch."},
	{ID: authsync.MetricCacheInvalidation, Name: "authsync_cache_invalidation_total", Help: "Cache entries marked stale."},
	{ID: authsync.MetricCachePurge, Name: "authsync_cache_purge_total", Help: "Full cache purges."},
	{ID: authsync.MetricOptimisticApplied, Name: "authsync_optimistic_applied_total", Help: "Optimistic profile updates applied."},
	{ID: authsync.MetricOptimisticRollback, Name: "authsync_optimistic_rollback_total", Help: "Optimistic profile updates rolled back."},
	{ID: authsync.MetricOptimisticSettled, Name: "authsync_optimistic_settled_total", Help: "Optimistic profile updates settled against server state."},
	{ID: authsync.MetricLogout, Name: "authsync_logout_total", Help: "Single-session logout operations."},
	{ID: authsync.MetricLogoutAll, Name: "authsync_logout_all_total", Help: "Logout-all operations."},
	{ID: authsync.MetricPasswordChangeSuccess, Name: "authsync_password_change_success_total", Help: "Successful password changes."},
	{ID: authsync.MetricPasswordChangeFailure, Name: "authsync_password_change_failure_total", Help: "Failed password changes."},
	{ID: authsync.MetricSessionExpired, Name: "authsync_session_expired_total", Help: "Sessions torn down after fatal auth failures."},
}

// HistogramDefs is an exported constant or variable used by the session engine.
var HistogramDefs = []HistogramDef{
	{ID: authsync.MetricAPILatency, Name: "authsync_api_latency_seconds", Help: "API call latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the session engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the session engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
