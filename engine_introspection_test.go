package authsync

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestTokenInfoReportsStoredGrant(t *testing.T) {
	mock := newTestMock()
	engine, clock := newTestEngine(t, mock)
	mustLogin(t, engine)

	info, err := engine.TokenInfo(context.Background())
	if err != nil {
		t.Fatalf("TokenInfo failed: %v", err)
	}
	if !info.Present {
		t.Fatal("expected token info present after login")
	}
	if info.TokenType != "Bearer" {
		t.Fatalf("expected Bearer, got %q", info.TokenType)
	}
	if info.Class != ClassSession {
		t.Fatalf("expected session class, got %v", info.Class)
	}
	if !info.Refreshable {
		t.Fatal("expected refreshable session grant")
	}
	if info.TimeToExpiry != time.Hour {
		t.Fatalf("expected 1h to expiry, got %v", info.TimeToExpiry)
	}

	clock.Advance(30 * time.Minute)
	info, err = engine.TokenInfo(context.Background())
	if err != nil {
		t.Fatalf("TokenInfo failed: %v", err)
	}
	if info.TimeToExpiry != 30*time.Minute {
		t.Fatalf("expected 30m to expiry, got %v", info.TimeToExpiry)
	}
}

func TestTokenInfoOpaqueTokenHasNoClaims(t *testing.T) {
	mock := newTestMock()
	engine, _ := newTestEngine(t, mock)
	mustLogin(t, engine)

	info, err := engine.TokenInfo(context.Background())
	if err != nil {
		t.Fatalf("TokenInfo failed: %v", err)
	}
	if info.JWTClaims || info.Subject != "" {
		t.Fatalf("opaque token must not report claims, got %+v", info)
	}
}

func TestTokenInfoReadsJWTSubject(t *testing.T) {
	mock := newTestMock()
	engine, clock := newTestEngine(t, mock)
	mock.session.AccessToken = jwtWithExpiry(t, clock.Now().Add(time.Hour))
	mustLogin(t, engine)

	info, err := engine.TokenInfo(context.Background())
	if err != nil {
		t.Fatalf("TokenInfo failed: %v", err)
	}
	if !info.JWTClaims {
		t.Fatal("expected JWT claims to be read")
	}
	if info.Subject != "u1" {
		t.Fatalf("expected subject u1, got %q", info.Subject)
	}
}

func TestTokenInfoWithoutSession(t *testing.T) {
	mock := newTestMock()
	engine, _ := newTestEngine(t, mock)

	info, err := engine.TokenInfo(context.Background())
	if err != nil {
		t.Fatalf("TokenInfo failed: %v", err)
	}
	if info.Present {
		t.Fatal("expected empty token info without a session")
	}
}

func TestSessionReportAfterLogin(t *testing.T) {
	mock := newTestMock()
	engine, clock := newTestEngine(t, mock)
	mustLogin(t, engine)

	report := engine.SessionReport(context.Background())
	if !report.Authenticated {
		t.Fatal("expected authenticated report")
	}
	if !report.Token.Present {
		t.Fatal("expected token info in report")
	}
	if report.RefreshDue {
		t.Fatal("fresh grant must not be due for refresh")
	}
	if !report.UserCached || !report.UserFresh {
		t.Fatalf("expected fresh cached user, got cached=%v fresh=%v", report.UserCached, report.UserFresh)
	}
	if report.AutoRefreshActive {
		t.Fatal("auto refresh was never started")
	}
	if report.RefreshSkew != 60*time.Second {
		t.Fatalf("expected default 60s skew, got %v", report.RefreshSkew)
	}
	if report.CacheEntries == 0 {
		t.Fatal("expected cache entries after login")
	}

	// Cross into the refresh window.
	clock.Advance(3541 * time.Second)
	report = engine.SessionReport(context.Background())
	if !report.RefreshDue {
		t.Fatal("expected refresh due near expiry")
	}
	if report.UserFresh {
		t.Fatal("expected cached user stale by now")
	}
}

func TestSessionReportEmptyEngine(t *testing.T) {
	mock := newTestMock()
	engine, _ := newTestEngine(t, mock)

	report := engine.SessionReport(context.Background())
	if report.Authenticated || report.Token.Present || report.UserCached {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestIntrospectionReadOnly(t *testing.T) {
	mock := newTestMock()
	engine, _ := newTestEngine(t, mock, func(cfg *Config) {
		cfg.Metrics.Enabled = true
	})
	mustLogin(t, engine)

	before := engine.MetricsSnapshot()

	if _, err := engine.TokenInfo(context.Background()); err != nil {
		t.Fatalf("TokenInfo failed: %v", err)
	}
	_ = engine.SessionReport(context.Background())
	_ = engine.Session(context.Background())

	after := engine.MetricsSnapshot()
	for id := MetricID(0); id < metricIDCount; id++ {
		if before.Counters[id] != after.Counters[id] {
			t.Fatalf("expected counter %d unchanged, before=%d after=%d", id, before.Counters[id], after.Counters[id])
		}
	}
}

func TestIntrospectionConcurrentCallsSafe(t *testing.T) {
	mock := newTestMock()
	engine, _ := newTestEngine(t, mock)
	mustLogin(t, engine)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = engine.TokenInfo(context.Background())
				_ = engine.SessionReport(context.Background())
				_ = engine.Session(context.Background())
			}
		}()
	}
	wg.Wait()
}
