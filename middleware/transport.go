package middleware

import (
	"context"
	"io"
	"net/http"

	"github.com/virelio/authsync/tokenstore"
)

// Session is the slice of the engine surface the transport needs. The root
// package's Engine satisfies it.
type Session interface {
	AccessToken(ctx context.Context) (string, bool)
	Refresh(ctx context.Context) (tokenstore.Tokens, error)
}

const drainLimit = 4 << 10

// Transport authenticates requests with the session's access token. When the
// server answers 401 it refreshes the grant and replays the request exactly
// once; concurrent 401s collapse into one refresh inside the engine.
type Transport struct {
	// Base performs the actual round-trips. Nil means http.DefaultTransport.
	Base http.RoundTripper

	// Session supplies tokens. Nil turns the transport into a passthrough.
	Session Session
}

func NewTransport(session Session, base http.RoundTripper) *Transport {
	return &Transport{Base: base, Session: session}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Session == nil {
		return t.base().RoundTrip(req)
	}

	ctx := req.Context()
	attempt := req.Clone(ctx)
	if token, ok := t.Session.AccessToken(ctx); ok {
		attempt.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base().RoundTrip(attempt)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// Replaying needs a rewindable body. Requests built with the standard
	// constructors carry GetBody; anything else keeps the original 401.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	tokens, refreshErr := t.Session.Refresh(ctx)
	if refreshErr != nil {
		return resp, nil
	}

	drainAndClose(resp.Body)

	retry := req.Clone(ctx)
	if req.GetBody != nil {
		body, bodyErr := req.GetBody()
		if bodyErr != nil {
			return nil, bodyErr
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	return t.base().RoundTrip(retry)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// drainAndClose consumes a bounded amount of the body so the underlying
// connection can be reused before the replay.
func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	io.Copy(io.Discard, io.LimitReader(body, drainLimit))
	body.Close()
}
