package authsync

import (
	"context"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/virelio/authsync/api"
	"github.com/virelio/authsync/tokenstore"
)

type mockAPI struct {
	mu sync.Mutex

	loginErr          error
	registerErr       error
	refreshErr        error
	logoutErr         error
	logoutAllErr      error
	changePasswordErr error
	updateProfileErr  error
	currentUserErr    error

	session        api.SessionPayload
	refreshPayload api.TokenPayload
	profile        api.UserProfile
	updated        api.UserProfile

	// When set, the matching call blocks until the gate channel is closed
	// or the call context ends.
	refreshGate       chan struct{}
	currentUserGate   chan struct{}
	updateProfileGate chan struct{}

	loginCalls          int
	registerCalls       int
	refreshCalls        int
	logoutCalls         int
	logoutAllCalls      int
	changePasswordCalls int
	updateProfileCalls  int
	currentUserCalls    int
}

func (m *mockAPI) Login(ctx context.Context, creds api.Credentials) (api.SessionPayload, error) {
	m.mu.Lock()
	m.loginCalls++
	err := m.loginErr
	payload := m.session
	m.mu.Unlock()

	if err != nil {
		return api.SessionPayload{}, err
	}
	return payload, nil
}

func (m *mockAPI) Register(ctx context.Context, reg api.Registration) (api.SessionPayload, error) {
	m.mu.Lock()
	m.registerCalls++
	err := m.registerErr
	payload := m.session
	m.mu.Unlock()

	if err != nil {
		return api.SessionPayload{}, err
	}
	return payload, nil
}

func (m *mockAPI) RefreshToken(ctx context.Context, refreshToken string) (api.TokenPayload, error) {
	m.mu.Lock()
	m.refreshCalls++
	err := m.refreshErr
	payload := m.refreshPayload
	gate := m.refreshGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return api.TokenPayload{}, ctx.Err()
		}
	}
	if err != nil {
		return api.TokenPayload{}, err
	}
	return payload, nil
}

func (m *mockAPI) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logoutCalls++
	return m.logoutErr
}

func (m *mockAPI) LogoutAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logoutAllCalls++
	return m.logoutAllErr
}

func (m *mockAPI) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changePasswordCalls++
	return m.changePasswordErr
}

func (m *mockAPI) UpdateProfile(ctx context.Context, patch api.ProfilePatch) (api.UserProfile, error) {
	m.mu.Lock()
	m.updateProfileCalls++
	err := m.updateProfileErr
	updated := m.updated
	gate := m.updateProfileGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return api.UserProfile{}, ctx.Err()
		}
	}
	if err != nil {
		return api.UserProfile{}, err
	}
	return updated, nil
}

func (m *mockAPI) CurrentUser(ctx context.Context) (api.UserProfile, error) {
	m.mu.Lock()
	m.currentUserCalls++
	err := m.currentUserErr
	profile := m.profile
	gate := m.currentUserGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return api.UserProfile{}, ctx.Err()
		}
	}
	if err != nil {
		return api.UserProfile{}, err
	}
	return profile, nil
}

func (m *mockAPI) calls(read func(m *mockAPI) int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return read(m)
}

func (m *mockAPI) setCurrentUserErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentUserErr = err
}

func (m *mockAPI) setProfile(p api.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = p
}

type failingStore struct {
	tokenstore.Store

	getErr   error
	setErr   error
	clearErr error
}

func (s *failingStore) Get(ctx context.Context) (tokenstore.Tokens, bool, error) {
	if s.getErr != nil {
		return tokenstore.Tokens{}, false, s.getErr
	}
	return s.Store.Get(ctx)
}

func (s *failingStore) Set(ctx context.Context, t tokenstore.Tokens) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.Store.Set(ctx, t)
}

func (s *failingStore) Clear(ctx context.Context) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	return s.Store.Clear(ctx)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testProfile() api.UserProfile {
	return api.UserProfile{
		ID:        "u1",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Liddell",
		Status:    api.StatusActive,
	}
}

func testSession() api.SessionPayload {
	return api.SessionPayload{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		User:         testProfile(),
	}
}

func newTestMock() *mockAPI {
	return &mockAPI{
		session: testSession(),
		refreshPayload: api.TokenPayload{
			AccessToken:  "access-2",
			RefreshToken: "refresh-2",
			TokenType:    "Bearer",
			ExpiresIn:    3600,
		},
		profile: testProfile(),
		updated: testProfile(),
	}
}

func newTestEngine(t *testing.T, mock *mockAPI, opts ...func(*Config)) (*Engine, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	cfg := DefaultConfig()
	cfg.Cache.SweepInterval = time.Hour
	for _, opt := range opts {
		opt(&cfg)
	}

	engine, err := New().
		WithConfig(cfg).
		WithAPIClient(mock).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, clock
}

func mustLogin(t *testing.T, engine *Engine) LoginResult {
	t.Helper()

	result, err := engine.Login(context.Background(), Credentials{
		Email:    "alice@example.com",
		Password: "correct-password-123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return result
}

func jwtWithExpiry(t *testing.T, expires time.Time) string {
	t.Helper()

	claims := jwtlib.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwtlib.NewNumericDate(expires),
	}
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return raw
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
