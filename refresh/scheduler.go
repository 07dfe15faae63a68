package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/virelio/authsync/tokenstore"
)

var (
	// ErrNoTokenSource is an exported constant or variable used by the session engine.
	ErrNoTokenSource = errors.New("refresh scheduler requires a token source")
	// ErrNoRunFunc is an exported constant or variable used by the session engine.
	ErrNoRunFunc = errors.New("refresh scheduler requires a run function")
)

// TokenSource is the read-only view of the token store the scheduler needs.
// It is satisfied by [tokenstore.Store].
type TokenSource interface {
	Get(ctx context.Context) (tokenstore.Tokens, bool, error)
}

// RunFunc executes one refresh mutation. The Engine wires its single-flight
// refresh operation here; the scheduler never inspects the error beyond
// letting the call finish.
type RunFunc func(ctx context.Context) error

// Config tunes the scheduler. Zero-value fields fall back to defaults.
type Config struct {
	// Interval between periodic evaluations. Defaults to 60s.
	Interval time.Duration

	// Skew is subtracted from the token deadline so renewal lands before
	// hard expiry. Defaults to 60s.
	Skew time.Duration

	// NowFunc overrides the clock, for tests.
	NowFunc func() time.Time

	// OnSkip is invoked when a non-refreshable record is observed. It is
	// called once per distinct access token, not once per tick.
	OnSkip func(tokens tokenstore.Tokens)
}

// ShouldRefresh reports whether the record is due for renewal at now: true
// once now reaches issuedAt+expiresIn-skew. Non-refreshable records are
// never due.
func ShouldRefresh(t tokenstore.Tokens, now time.Time, skew time.Duration) bool {
	if !t.Refreshable() {
		return false
	}
	return t.ExpiresWithin(now, skew)
}

// Scheduler periodically evaluates the token record and initiates at most
// one renewal at a time. Construct with [New], then [Scheduler.Start] and
// [Scheduler.Stop] bound its lifetime explicitly; nothing runs before Start.
type Scheduler struct {
	tokens   TokenSource
	run      RunFunc
	interval time.Duration
	skew     time.Duration
	now      func() time.Time
	onSkip   func(tokenstore.Tokens)

	inFlight atomic.Bool
	started  atomic.Bool
	stopped  atomic.Bool

	skipMu   sync.Mutex
	lastSkip string

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// New validates the wiring and returns a scheduler that has not started.
func New(cfg Config, tokens TokenSource, run RunFunc) (*Scheduler, error) {
	if tokens == nil {
		return nil, ErrNoTokenSource
	}
	if run == nil {
		return nil, ErrNoRunFunc
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	skew := cfg.Skew
	if skew <= 0 {
		skew = time.Minute
	}
	now := cfg.NowFunc
	if now == nil {
		now = time.Now
	}

	return &Scheduler{
		tokens:   tokens,
		run:      run,
		interval: interval,
		skew:     skew,
		now:      now,
		onSkip:   cfg.OnSkip,
		done:     make(chan struct{}),
	}, nil
}

// Start launches the periodic loop: one immediate evaluation, then one per
// interval until [Scheduler.Stop]. Start is idempotent.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.started.Store(true)
		s.wg.Add(1)
		go s.loop(ctx)
	})
}

// Stop halts future ticks and waits for the loop to exit. A renewal already
// handed to the run function is not interrupted. Stop is idempotent and
// safe to call without Start.
func (s *Scheduler) Stop() {
	s.closeOnce.Do(func() {
		s.stopped.Store(true)
		close(s.done)
	})
	s.wg.Wait()
}

// Running reports whether the loop has been started and not yet stopped.
func (s *Scheduler) Running() bool {
	return s.started.Load() && !s.stopped.Load()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	s.evaluate(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evaluate(ctx)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// evaluate runs one scheduling decision and reports whether a renewal was
// initiated. A pending renewal makes every overlapping evaluation a no-op.
func (s *Scheduler) evaluate(ctx context.Context) bool {
	tokens, ok, err := s.tokens.Get(ctx)
	if err != nil || !ok {
		return false
	}
	if !tokens.Refreshable() {
		s.noteSkip(tokens)
		return false
	}
	if !ShouldRefresh(tokens, s.now(), s.skew) {
		return false
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return false
	}
	defer s.inFlight.Store(false)

	// Failure handling lives in the run function; the next tick simply
	// re-evaluates whatever state it left behind.
	_ = s.run(ctx)
	return true
}

func (s *Scheduler) noteSkip(tokens tokenstore.Tokens) {
	if s.onSkip == nil {
		return
	}
	s.skipMu.Lock()
	seen := s.lastSkip == tokens.AccessToken
	if !seen {
		s.lastSkip = tokens.AccessToken
	}
	s.skipMu.Unlock()

	if !seen {
		s.onSkip(tokens)
	}
}
