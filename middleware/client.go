package middleware

import "net/http"

// NewClient returns an *http.Client whose transport attaches the session's
// access token and retries once through a refresh on 401. The zero base means
// http.DefaultTransport carries the actual round-trips.
func NewClient(session Session) *http.Client {
	return &http.Client{Transport: NewTransport(session, nil)}
}
