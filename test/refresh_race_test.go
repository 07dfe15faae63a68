//go:build integration
// +build integration

package test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	authsync "github.com/virelio/authsync"
	"github.com/virelio/authsync/api"
)

// countingClient serves refresh grants and counts upstream round-trips. All
// other operations are unused in this suite.
type countingClient struct {
	refreshCalls atomic.Int64
}

func (c *countingClient) Login(ctx context.Context, creds api.Credentials) (api.SessionPayload, error) {
	return api.SessionPayload{
		AccessToken:  "access-0",
		RefreshToken: "refresh-0",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		User:         api.UserProfile{ID: "u1", Email: creds.Email, Status: api.StatusActive},
	}, nil
}

func (c *countingClient) Register(ctx context.Context, reg api.Registration) (api.SessionPayload, error) {
	return api.SessionPayload{}, &api.Error{Kind: api.KindRequest, Op: "register", Status: 404}
}

func (c *countingClient) RefreshToken(ctx context.Context, refreshToken string) (api.TokenPayload, error) {
	n := c.refreshCalls.Add(1)
	return api.TokenPayload{
		AccessToken:  fmt.Sprintf("access-%d", n),
		RefreshToken: fmt.Sprintf("refresh-%d", n),
		TokenType:    "Bearer",
		ExpiresIn:    3600,
	}, nil
}

func (c *countingClient) Logout(ctx context.Context) error    { return nil }
func (c *countingClient) LogoutAll(ctx context.Context) error { return nil }
func (c *countingClient) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return nil
}
func (c *countingClient) UpdateProfile(ctx context.Context, patch api.ProfilePatch) (api.UserProfile, error) {
	return api.UserProfile{}, &api.Error{Kind: api.KindRequest, Op: "profile_update", Status: 404}
}
func (c *countingClient) CurrentUser(ctx context.Context) (api.UserProfile, error) {
	return api.UserProfile{ID: "u1", Status: api.StatusActive}, nil
}

// TestRefreshRaceSharesOneFlight drives concurrent refreshes through an
// engine whose grant persists in Redis, and verifies callers collapse into a
// single upstream exchange with a consistent stored result.
func TestRefreshRaceSharesOneFlight(t *testing.T) {
	ctx := context.Background()
	store, _, cleanup := newIntegrationStore(t)
	defer cleanup()

	client := &countingClient{}
	engine, err := authsync.New().
		WithAPIClient(client).
		WithTokenStore(store).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := engine.Login(ctx, authsync.Credentials{Email: "alice@example.com", Password: "pw"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	results := make(chan authsync.AuthTokens, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			tokens, err := engine.Refresh(ctx)
			if err != nil {
				errs <- err
				return
			}
			results <- tokens
		}()
	}

	close(start)
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected refresh error: %v", err)
	}

	// Every caller that joined the shared flight sees that flight's grant.
	// Workers arriving after it completed may have started another, so the
	// upstream count is bounded by distinct grants, not by workers.
	seen := make(map[string]bool)
	for tokens := range results {
		seen[tokens.AccessToken] = true
	}
	calls := client.refreshCalls.Load()
	if calls < 1 || calls > int64(len(seen)) {
		t.Fatalf("upstream calls = %d, want between 1 and %d distinct grants", calls, len(seen))
	}
	if int64(len(seen)) > calls {
		t.Fatalf("saw %d distinct grants from %d upstream calls", len(seen), calls)
	}

	// The store holds the newest generation issued.
	stored, ok, err := store.Get(ctx)
	if err != nil || !ok {
		t.Fatalf("Get after race: ok=%v err=%v", ok, err)
	}
	if stored.AccessToken != fmt.Sprintf("access-%d", calls) {
		t.Fatalf("stored access token %q, want the last issued generation access-%d", stored.AccessToken, calls)
	}
}
