package authsync

import (
	"errors"
	"fmt"
	"time"
)

// Config defines a public type used by authsync APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Query   QueryConfig
	Refresh RefreshConfig
	Retry   RetryConfig
	Cache   CacheConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
QUERY CONFIG
====================================
*/

// QueryConfig defines a public type used by authsync APIs.
//
// QueryConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type QueryConfig struct {
	UserFreshFor time.Duration // served without a refetch inside this window
	UserKeepFor  time.Duration // retained for stale-while-revalidate reads
	FetchTimeout time.Duration
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig defines a public type used by authsync APIs.
//
// RefreshConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RefreshConfig struct {
	Interval time.Duration
	Skew     time.Duration
}

/*
====================================
RETRY CONFIG
====================================
*/

// RetryConfig defines a public type used by authsync APIs.
//
// RetryConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RetryConfig struct {
	MaxAttempts int // transient retries per request, 0 disables retrying
	Backoff     time.Duration
	BackoffMax  time.Duration
}

/*
====================================
CACHE CONFIG
====================================
*/

// CacheConfig defines a public type used by authsync APIs.
//
// CacheConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CacheConfig struct {
	SweepInterval time.Duration
}

// AuditConfig defines a public type used by authsync APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by authsync APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig may return an error when input validation, dependency calls, or security checks fail.
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultConfig() Config {
	return Config{
		Query: QueryConfig{
			UserFreshFor: 5 * time.Minute,
			UserKeepFor:  30 * time.Minute,
			FetchTimeout: 10 * time.Second,
		},
		Refresh: RefreshConfig{
			Interval: 60 * time.Second,
			Skew:     60 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: 2,
			Backoff:     250 * time.Millisecond,
			BackoffMax:  2 * time.Second,
		},
		Cache: CacheConfig{
			SweepInterval: time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

/*
====================================
PRESETS
====================================
*/

// OfflineFirstConfig returns a preset tuned for clients with unreliable
// connectivity: long cache retention, patient retries, and audit events
// that drop rather than block when the sink stalls.
func OfflineFirstConfig() Config {
	cfg := DefaultConfig()
	cfg.Query.UserFreshFor = 30 * time.Minute
	cfg.Query.UserKeepFor = 24 * time.Hour
	cfg.Query.FetchTimeout = 30 * time.Second
	cfg.Retry.MaxAttempts = 4
	cfg.Retry.Backoff = 500 * time.Millisecond
	cfg.Retry.BackoffMax = 10 * time.Second
	cfg.Refresh.Skew = 5 * time.Minute
	cfg.Audit.DropIfFull = true
	return cfg
}

// RealtimeConfig returns a preset tuned for dashboards and other consumers
// that prefer fresh data over cheap reads: short freshness windows, a single
// quick retry, and latency histograms on.
func RealtimeConfig() Config {
	cfg := DefaultConfig()
	cfg.Query.UserFreshFor = 30 * time.Second
	cfg.Query.UserKeepFor = 5 * time.Minute
	cfg.Query.FetchTimeout = 5 * time.Second
	cfg.Retry.MaxAttempts = 1
	cfg.Retry.Backoff = 100 * time.Millisecond
	cfg.Retry.BackoffMax = 100 * time.Millisecond
	cfg.Refresh.Interval = 15 * time.Second
	cfg.Cache.SweepInterval = 15 * time.Second
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Query
	if c.Query.UserFreshFor <= 0 {
		return errors.New("Query UserFreshFor must be > 0")
	}
	if c.Query.UserKeepFor < c.Query.UserFreshFor {
		return errors.New("Query UserKeepFor must be >= UserFreshFor")
	}
	if c.Query.FetchTimeout <= 0 {
		return errors.New("Query FetchTimeout must be > 0")
	}

	// Refresh
	if c.Refresh.Interval <= 0 {
		return errors.New("Refresh Interval must be > 0")
	}
	if c.Refresh.Skew < 0 {
		return errors.New("Refresh Skew must be >= 0")
	}

	// Retry
	if c.Retry.MaxAttempts < 0 {
		return errors.New("Retry MaxAttempts must be >= 0")
	}
	if c.Retry.MaxAttempts > 0 {
		if c.Retry.Backoff <= 0 {
			return errors.New("Retry Backoff must be > 0 when retries are enabled")
		}
		if c.Retry.BackoffMax < c.Retry.Backoff {
			return errors.New("Retry BackoffMax must be >= Backoff")
		}
	}

	// Cache
	if c.Cache.SweepInterval <= 0 {
		return errors.New("Cache SweepInterval must be > 0")
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}

/*
====================================
LINT
====================================
*/

// LintSeverity defines a public type used by authsync APIs.
//
// LintSeverity instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LintSeverity int

const (
	// LintInfo is an exported constant or variable used by the session engine.
	LintInfo LintSeverity = iota
	// LintWarn is an exported constant or variable used by the session engine.
	LintWarn
	// LintHigh is an exported constant or variable used by the session engine.
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning defines a public type used by authsync APIs.
//
// LintWarning instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings defines a public type used by authsync APIs.
//
// LintWarnings instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LintWarnings []LintWarning

// Codes returns the warning codes in emission order.
func (ws LintWarnings) Codes() []string {
	codes := make([]string, 0, len(ws))
	for _, w := range ws {
		codes = append(codes, w.Code)
	}
	return codes
}

// BySeverity returns the warnings at or above min.
func (ws LintWarnings) BySeverity(min LintSeverity) LintWarnings {
	var out LintWarnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError converts the warnings at or above min into a single error, nil
// when none qualify. Useful for startup checks that should refuse plainly
// hazardous configurations without hard-coding every rule.
func (ws LintWarnings) AsError(min LintSeverity) error {
	qualifying := ws.BySeverity(min)
	if len(qualifying) == 0 {
		return nil
	}
	msg := "config lint:"
	for _, w := range qualifying {
		msg += fmt.Sprintf(" [%s] %s: %s;", w.Severity, w.Code, w.Message)
	}
	return errors.New(msg[:len(msg)-1])
}

// Lint reports configurations that Validate accepts but that are likely
// mistakes in production. Rules are advisory; Build never calls Lint.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings

	if !c.Audit.Enabled {
		ws = append(ws, LintWarning{
			Code:     "audit_disabled",
			Severity: LintInfo,
			Message:  "no audit trail will be emitted for session transitions",
		})
	}
	if c.Audit.Enabled && !c.Audit.DropIfFull {
		ws = append(ws, LintWarning{
			Code:     "audit_blocking",
			Severity: LintHigh,
			Message:  "a stalled audit sink will back-pressure login and refresh paths",
		})
	}
	if c.Retry.MaxAttempts == 0 {
		ws = append(ws, LintWarning{
			Code:     "retries_disabled",
			Severity: LintInfo,
			Message:  "transient API failures surface immediately with no retry",
		})
	}
	if c.Query.UserKeepFor == c.Query.UserFreshFor {
		ws = append(ws, LintWarning{
			Code:     "no_stale_window",
			Severity: LintWarn,
			Message:  "entries expire the moment they go stale; stale-while-revalidate never engages",
		})
	}
	if c.Cache.SweepInterval > c.Query.UserKeepFor {
		ws = append(ws, LintWarning{
			Code:     "sweep_slower_than_keep",
			Severity: LintWarn,
			Message:  "expired entries linger past their keep window between sweeps",
		})
	}
	if c.Query.FetchTimeout > c.Query.UserFreshFor {
		ws = append(ws, LintWarning{
			Code:     "fetch_timeout_exceeds_fresh",
			Severity: LintWarn,
			Message:  "a revalidation can outlive the freshness window it restores",
		})
	}
	if c.Refresh.Skew > 0 && c.Refresh.Interval > c.Refresh.Skew {
		ws = append(ws, LintWarning{
			Code:     "refresh_interval_exceeds_skew",
			Severity: LintWarn,
			Message:  "a grant can expire between scheduler ticks before the early-refresh window is seen",
		})
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		ws = append(ws, LintWarning{
			Code:     "latency_without_metrics",
			Severity: LintHigh,
			Message:  "latency histograms are requested but metrics are disabled; nothing will be recorded",
		})
	}

	return ws
}
