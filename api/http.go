package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/virelio/authsync/internal/backoff"
)

const (
	defaultUserAgent  = "authsync/1.0"
	defaultTimeout    = 15 * time.Second
	defaultMaxRetries = 2

	// maxErrorBody bounds how much of a failed response is read when
	// extracting the server's error envelope.
	maxErrorBody = 4 << 10
)

// HTTPConfig configures [NewHTTP]. Zero-value fields fall back to defaults.
type HTTPConfig struct {
	// BaseURL is the Auth API root, e.g. "https://api.example.com/auth".
	BaseURL string

	// Client is the underlying HTTP client. Defaults to a client with a
	// 15s request timeout.
	Client *http.Client

	// Tokens supplies bearer credentials for authenticated endpoints. May
	// be nil when only login, register, and refresh are used.
	Tokens TokenSource

	// UserAgent overrides the User-Agent header.
	UserAgent string

	// MaxRetries bounds transient-failure retries per call. Zero means the
	// default of 2; a negative value disables retries.
	MaxRetries int

	// Retry is the backoff schedule between transient retries.
	Retry backoff.Schedule

	// OnRetry, when non-nil, is invoked before each transient retry with the
	// operation name and the zero-based attempt number.
	OnRetry func(op string, attempt int)
}

// HTTPClient is the production [Client] implementation. A single value is
// safe for concurrent use by any number of goroutines.
type HTTPClient struct {
	base    string
	hc      *http.Client
	tokens  TokenSource
	ua      string
	retries int
	retry   backoff.Schedule
	onRetry func(op string, attempt int)
}

// NewHTTP validates cfg and returns a ready client.
func NewHTTP(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, ErrBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURL, cfg.BaseURL)
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	retries := cfg.MaxRetries
	switch {
	case retries == 0:
		retries = defaultMaxRetries
	case retries < 0:
		retries = 0
	}
	retry := cfg.Retry
	if retry.Base <= 0 {
		retry = backoff.Schedule{Base: 250 * time.Millisecond, Max: 2 * time.Second}
	}

	return &HTTPClient{
		base:    strings.TrimSuffix(base.String(), "/"),
		hc:      hc,
		tokens:  cfg.Tokens,
		ua:      ua,
		retries: retries,
		retry:   retry,
		onRetry: cfg.OnRetry,
	}, nil
}

// Login exchanges credentials for a token grant and the account profile.
func (c *HTTPClient) Login(ctx context.Context, creds Credentials) (SessionPayload, error) {
	var out SessionPayload
	if err := c.do(ctx, "login", http.MethodPost, "/login", creds, &out, false); err != nil {
		return SessionPayload{}, err
	}
	return out, nil
}

// Register creates an account and returns the same shape as [HTTPClient.Login].
func (c *HTTPClient) Register(ctx context.Context, reg Registration) (SessionPayload, error) {
	var out SessionPayload
	if err := c.do(ctx, "register", http.MethodPost, "/register", reg, &out, false); err != nil {
		return SessionPayload{}, err
	}
	return out, nil
}

// RefreshToken exchanges the refresh token for a fresh grant.
func (c *HTTPClient) RefreshToken(ctx context.Context, refreshToken string) (TokenPayload, error) {
	if refreshToken == "" {
		return TokenPayload{}, &Error{Kind: KindAuth, Op: "refresh", Message: "empty refresh token", cause: ErrNoRefreshToken}
	}
	body := struct {
		RefreshToken string `json:"refreshToken"`
	}{RefreshToken: refreshToken}

	var out TokenPayload
	if err := c.do(ctx, "refresh", http.MethodPost, "/refresh", body, &out, false); err != nil {
		return TokenPayload{}, err
	}
	return out, nil
}

// Logout revokes the session identified by the bearer token.
func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, "logout", http.MethodPost, "/logout", nil, nil, true)
}

// LogoutAll revokes every session belonging to the account.
func (c *HTTPClient) LogoutAll(ctx context.Context) error {
	return c.do(ctx, "logout_all", http.MethodPost, "/logout-all", nil, nil, true)
}

// ChangePassword rotates the account password. The session stays valid.
func (c *HTTPClient) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	body := struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}{OldPassword: oldPassword, NewPassword: newPassword}

	return c.do(ctx, "password_change", http.MethodPost, "/password", body, nil, true)
}

// UpdateProfile applies a partial profile edit and returns the full profile
// as the server normalized it.
func (c *HTTPClient) UpdateProfile(ctx context.Context, patch ProfilePatch) (UserProfile, error) {
	var out UserProfile
	if err := c.do(ctx, "profile_update", http.MethodPatch, "/profile", patch, &out, true); err != nil {
		return UserProfile{}, err
	}
	return out, nil
}

// CurrentUser fetches the profile of the authenticated account.
func (c *HTTPClient) CurrentUser(ctx context.Context) (UserProfile, error) {
	var out UserProfile
	if err := c.do(ctx, "user_fetch", http.MethodGet, "/me", nil, &out, true); err != nil {
		return UserProfile{}, err
	}
	return out, nil
}

// do runs one logical call: encode, send, classify, and retry transient
// failures up to the configured bound. Auth and request failures are never
// retried.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, body, out any, authed bool) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindRequest, Op: op, Message: "encode request", cause: err}
		}
		payload = b
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		err := c.once(ctx, op, method, path, payload, out, authed)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsTransient(err) || attempt >= c.retries {
			return err
		}
		if c.onRetry != nil {
			c.onRetry(op, attempt)
		}
		if err := c.retry.Sleep(ctx, attempt); err != nil {
			// Context ended while backing off. Surface the API failure;
			// its cause chain already records what went wrong.
			return lastErr
		}
	}
}

func (c *HTTPClient) once(ctx context.Context, op, method, path string, payload []byte, out any, authed bool) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return &Error{Kind: KindRequest, Op: op, Message: "build request", cause: err}
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.ua)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token, ok := c.token(ctx)
		if !ok {
			return &Error{Kind: KindAuth, Op: op, RequestID: requestID, Message: "no access token", cause: ErrNoAccessToken}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return &Error{Kind: KindTransient, Op: op, RequestID: requestID, Message: "request failed", cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(op, requestID, resp)
	}
	if out == nil {
		// Drain so the underlying connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindTransient, Op: op, Status: resp.StatusCode, RequestID: requestID, Message: "decode response", cause: err}
	}
	return nil
}

func (c *HTTPClient) token(ctx context.Context) (string, bool) {
	if c.tokens == nil {
		return "", false
	}
	return c.tokens.AccessToken(ctx)
}

// errorBody is the JSON error envelope returned by the Auth API.
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func statusError(op, requestID string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := http.StatusText(resp.StatusCode)
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Message != "" {
		msg = eb.Message
	}

	return &Error{
		Kind:      classifyStatus(resp.StatusCode),
		Op:        op,
		Status:    resp.StatusCode,
		Message:   msg,
		RequestID: requestID,
	}
}

// classifyStatus maps an HTTP status onto the retry taxonomy: 401 is an
// auth rejection, 408/429/5xx are transient, every other 4xx is a request
// error.
func classifyStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return KindTransient
	default:
		return KindRequest
	}
}
