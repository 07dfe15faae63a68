package authsync

import (
	"errors"
	"time"

	"github.com/virelio/authsync/api"
	"github.com/virelio/authsync/cache"
	"github.com/virelio/authsync/internal/backoff"
	"github.com/virelio/authsync/refresh"
	"github.com/virelio/authsync/tokenstore"
)

// Builder defines a public type used by authsync APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	baseURL string
	client  api.Client
	store   tokenstore.Store

	auditSink AuditSink
	nowFunc   func() time.Time

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithBaseURL describes the withbaseurl operation and its observable behavior.
//
// WithBaseURL may return an error when input validation, dependency calls, or security checks fail.
// WithBaseURL does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.baseURL = baseURL
	return b
}

// WithAPIClient describes the withapiclient operation and its observable behavior.
//
// WithAPIClient may return an error when input validation, dependency calls, or security checks fail.
// WithAPIClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAPIClient(client api.Client) *Builder {
	b.client = client
	return b
}

// WithTokenStore describes the withtokenstore operation and its observable behavior.
//
// WithTokenStore may return an error when input validation, dependency calls, or security checks fail.
// WithTokenStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithTokenStore(store tokenstore.Store) *Builder {
	b.store = store
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides the engine clock. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.nowFunc = now
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.client == nil && b.baseURL == "" {
		return nil, errors.New("api client or base url required")
	}
	if b.client != nil && b.baseURL != "" {
		return nil, errors.New("api client and base url are mutually exclusive")
	}

	store := b.store
	if store == nil {
		store = tokenstore.NewMemory()
	}

	now := b.nowFunc
	if now == nil {
		now = time.Now
	}

	engine := &Engine{
		config:  cfg,
		tokens:  store,
		now:     now,
		fetches: make(map[cache.Key]*fetchHandle),
	}

	engine.cache = cache.New(cache.Config{
		FreshFor:      cfg.Query.UserFreshFor,
		KeepFor:       cfg.Query.UserKeepFor,
		SweepInterval: cfg.Cache.SweepInterval,
		NowFunc:       now,
	})
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	if b.client != nil {
		engine.client = b.client
	} else {
		// Config encodes "no retries" as MaxAttempts 0; the HTTP client
		// encodes it as a negative MaxRetries.
		maxRetries := cfg.Retry.MaxAttempts
		if maxRetries <= 0 {
			maxRetries = -1
		}
		hc, err := api.NewHTTP(api.HTTPConfig{
			BaseURL:    b.baseURL,
			Tokens:     engine,
			MaxRetries: maxRetries,
			Retry: backoff.Schedule{
				Base: cfg.Retry.Backoff,
				Max:  cfg.Retry.BackoffMax,
			},
			OnRetry: func(string, int) {
				engine.metricInc(MetricAPIRetry)
			},
		})
		if err != nil {
			return nil, err
		}
		engine.client = hc
	}

	scheduler, err := refresh.New(refresh.Config{
		Interval: cfg.Refresh.Interval,
		Skew:     cfg.Refresh.Skew,
		NowFunc:  now,
		OnSkip:   engine.noteRefreshSkip,
	}, store, engine.runScheduledRefresh)
	if err != nil {
		return nil, err
	}
	engine.scheduler = scheduler

	b.built = true

	return engine, nil
}
