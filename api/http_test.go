package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/virelio/authsync/internal/backoff"
)

type staticTokens string

func (s staticTokens) AccessToken(context.Context) (string, bool) {
	return string(s), s != ""
}

func testProfile() UserProfile {
	return UserProfile{
		ID:          "user-1",
		Email:       "jane@example.com",
		FirstName:   "Jane",
		LastName:    "Doe",
		Status:      StatusActive,
		TenantID:    "tenant-a",
		CreatedAt:   time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC),
		LastLoginAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func testSessionPayload() SessionPayload {
	return SessionPayload{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		User:         testProfile(),
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc, mutate ...func(*HTTPConfig)) *HTTPClient {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := HTTPConfig{
		BaseURL: srv.URL,
		Client:  srv.Client(),
		Retry:   backoff.Schedule{Base: time.Millisecond, Max: 2 * time.Millisecond},
	}
	for _, m := range mutate {
		m(&cfg)
	}

	client, err := NewHTTP(cfg)
	if err != nil {
		t.Fatalf("NewHTTP failed: %v", err)
	}
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestNewHTTPRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "not-a-url", "/relative/only"} {
		if _, err := NewHTTP(HTTPConfig{BaseURL: raw}); !errors.Is(err, ErrBaseURL) {
			t.Fatalf("BaseURL %q: expected ErrBaseURL, got %v", raw, err)
		}
	}
}

func TestLoginSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/login" {
			t.Errorf("unexpected route %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("missing JSON content type")
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing X-Request-ID header")
		}
		var creds Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if creds.Email != "jane@example.com" || creds.Password != "hunter2-long" {
			t.Errorf("unexpected credentials %+v", creds)
		}
		writeJSON(t, w, http.StatusOK, testSessionPayload())
	})

	got, err := client.Login(context.Background(), Credentials{Email: "jane@example.com", Password: "hunter2-long"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if got.AccessToken != "access-1" || got.RefreshToken != "refresh-1" {
		t.Fatalf("unexpected grant %+v", got)
	}
	if got.User.Email != "jane@example.com" {
		t.Fatalf("unexpected user %+v", got.User)
	}
}

func TestLoginRejectionIsAuthKind(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
	})

	_, err := client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "wrong"})
	if !IsAuth(err) {
		t.Fatalf("expected auth kind, got %v", err)
	}
	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if ae.Status != http.StatusUnauthorized || ae.Message != "invalid credentials" {
		t.Fatalf("unexpected error detail %+v", ae)
	}
	if ae.RequestID == "" {
		t.Fatalf("expected request ID on error")
	}
	if hits.Load() != 1 {
		t.Fatalf("auth rejection must not be retried, server saw %d requests", hits.Load())
	}
}

func TestTransientRetryThenSuccess(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			writeJSON(t, w, http.StatusServiceUnavailable, map[string]string{"message": "try later"})
			return
		}
		writeJSON(t, w, http.StatusOK, testSessionPayload())
	})

	if _, err := client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "pw"}); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if hits.Load() != 3 {
		t.Fatalf("expected 3 attempts, server saw %d", hits.Load())
	}
}

func TestTransientRetriesExhausted(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(t, w, http.StatusServiceUnavailable, map[string]string{"message": "down"})
	})

	_, err := client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})
	if !IsTransient(err) {
		t.Fatalf("expected transient kind, got %v", err)
	}
	// Default budget: the initial attempt plus two retries.
	if hits.Load() != 3 {
		t.Fatalf("expected 3 attempts, server saw %d", hits.Load())
	}
}

func TestRetriesDisabledByNegativeBudget(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(t, w, http.StatusServiceUnavailable, map[string]string{"message": "down"})
	}, func(cfg *HTTPConfig) {
		cfg.MaxRetries = -1
	})

	if _, err := client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "pw"}); !IsTransient(err) {
		t.Fatalf("expected transient kind, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected single attempt, server saw %d", hits.Load())
	}
}

func TestBadRequestIsRequestKindNotRetried(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(t, w, http.StatusUnprocessableEntity, map[string]string{"message": "email taken"})
	})

	_, err := client.Register(context.Background(), Registration{Email: "a@b.c", Password: "pw"})
	if !IsRequest(err) {
		t.Fatalf("expected request kind, got %v", err)
	}
	if IsAuth(err) || IsTransient(err) {
		t.Fatalf("kind helpers must be mutually exclusive: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("request rejection must not be retried, server saw %d", hits.Load())
	}
}

func TestNetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	cfg := HTTPConfig{
		BaseURL:    srv.URL,
		Client:     srv.Client(),
		MaxRetries: -1,
	}
	client, err := NewHTTP(cfg)
	if err != nil {
		t.Fatalf("NewHTTP failed: %v", err)
	}
	srv.Close()

	_, err = client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})
	if !IsTransient(err) {
		t.Fatalf("expected transient kind for connection failure, got %v", err)
	}
	var ae *Error
	if !errors.As(err, &ae) || ae.Unwrap() == nil {
		t.Fatalf("expected wrapped transport cause, got %v", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/refresh" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.RefreshToken != "refresh-1" {
			t.Errorf("unexpected refresh token %q", body.RefreshToken)
		}
		writeJSON(t, w, http.StatusOK, TokenPayload{
			AccessToken:  "access-2",
			RefreshToken: "refresh-2",
			TokenType:    "Bearer",
			ExpiresIn:    3600,
		})
	})

	got, err := client.RefreshToken(context.Background(), "refresh-1")
	if err != nil {
		t.Fatalf("RefreshToken failed: %v", err)
	}
	if got.AccessToken != "access-2" || got.RefreshToken != "refresh-2" {
		t.Fatalf("unexpected grant %+v", got)
	}
}

func TestRefreshTokenEmptyInput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request should be sent for an empty refresh token")
	})

	_, err := client.RefreshToken(context.Background(), "")
	if !IsAuth(err) || !errors.Is(err, ErrNoRefreshToken) {
		t.Fatalf("expected auth kind wrapping ErrNoRefreshToken, got %v", err)
	}
}

func TestAuthenticatedCallAttachesBearer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/me" {
			t.Errorf("unexpected route %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-abc" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		writeJSON(t, w, http.StatusOK, testProfile())
	}, func(cfg *HTTPConfig) {
		cfg.Tokens = staticTokens("tok-abc")
	})

	got, err := client.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if got.ID != "user-1" {
		t.Fatalf("unexpected profile %+v", got)
	}
}

func TestAuthenticatedCallWithoutToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request should reach the server without a token")
	})

	_, err := client.CurrentUser(context.Background())
	if !IsAuth(err) || !errors.Is(err, ErrNoAccessToken) {
		t.Fatalf("expected auth kind wrapping ErrNoAccessToken, got %v", err)
	}
}

func TestLogoutSendsNoBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/logout" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.ContentLength > 0 {
			t.Errorf("logout must not carry a body, got %d bytes", r.ContentLength)
		}
		w.WriteHeader(http.StatusNoContent)
	}, func(cfg *HTTPConfig) {
		cfg.Tokens = staticTokens("tok-abc")
	})

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
}

func TestChangePasswordBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			OldPassword string `json:"oldPassword"`
			NewPassword string `json:"newPassword"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.OldPassword != "old-pass-123" || body.NewPassword != "new-pass-456" {
			t.Errorf("unexpected body %+v", body)
		}
		w.WriteHeader(http.StatusNoContent)
	}, func(cfg *HTTPConfig) {
		cfg.Tokens = staticTokens("tok-abc")
	})

	if err := client.ChangePassword(context.Background(), "old-pass-123", "new-pass-456"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
}

func TestUpdateProfileSendsOnlyPatchedFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("unexpected method %s", r.Method)
		}
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if len(raw) != 1 || raw["firstName"] != "Janet" {
			t.Errorf("patch must carry only changed fields, got %v", raw)
		}
		updated := testProfile()
		updated.FirstName = "Janet"
		writeJSON(t, w, http.StatusOK, updated)
	}, func(cfg *HTTPConfig) {
		cfg.Tokens = staticTokens("tok-abc")
	})

	first := "Janet"
	got, err := client.UpdateProfile(context.Background(), ProfilePatch{FirstName: &first})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if got.FirstName != "Janet" || got.LastName != "Doe" {
		t.Fatalf("unexpected profile %+v", got)
	}
}

func TestContextCancellationStopsRetries(t *testing.T) {
	var hits atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			cancel()
		}
		writeJSON(t, w, http.StatusServiceUnavailable, map[string]string{"message": "down"})
	}, func(cfg *HTTPConfig) {
		cfg.Retry = backoff.Schedule{Base: time.Minute}
	})

	start := time.Now()
	_, err := client.Login(ctx, Credentials{Email: "a@b.c", Password: "pw"})
	if !IsTransient(err) {
		t.Fatalf("expected the transient failure to surface, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("cancelled call did not return promptly: %v", elapsed)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected backoff to abort after cancellation, server saw %d", hits.Load())
	}
}
