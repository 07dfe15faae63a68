package api

import (
	"errors"
	"fmt"
)

// Kind classifies an [Error] for retry and session-lifecycle decisions.
type Kind uint8

const (
	// KindAuth marks a credential or token rejection. Repeating the call
	// with the same credential cannot succeed.
	KindAuth Kind = iota + 1
	// KindTransient marks a network failure, timeout, 429, or 5xx response.
	// The call may succeed if repeated.
	KindTransient
	// KindRequest marks any other 4xx response: the request itself was
	// rejected and an identical retry fails the same way.
	KindRequest
)

// String returns the stable lowercase label used in audit metadata.
func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindTransient:
		return "transient"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

var (
	// ErrNoAccessToken is an exported constant or variable used by the session engine.
	ErrNoAccessToken = errors.New("no access token available")
	// ErrNoRefreshToken is an exported constant or variable used by the session engine.
	ErrNoRefreshToken = errors.New("no refresh token available")
	// ErrBaseURL is an exported constant or variable used by the session engine.
	ErrBaseURL = errors.New("invalid base URL")
)

// Error is the typed failure returned by every [Client] operation. Op names
// the operation ("login", "refresh", ...), Status carries the HTTP status
// when a response was received, and RequestID echoes the X-Request-ID header
// sent with the failing attempt.
type Error struct {
	Kind      Kind
	Op        string
	Status    int
	Message   string
	RequestID string

	cause error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.cause != nil {
		msg = e.cause.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s %d: %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.cause }

// IsAuth reports whether err is an [Error] of [KindAuth].
func IsAuth(err error) bool { return kindOf(err) == KindAuth }

// IsTransient reports whether err is an [Error] of [KindTransient].
func IsTransient(err error) bool { return kindOf(err) == KindTransient }

// IsRequest reports whether err is an [Error] of [KindRequest].
func IsRequest(err error) bool { return kindOf(err) == KindRequest }

func kindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}
