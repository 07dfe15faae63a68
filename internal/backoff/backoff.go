package backoff

import (
	"context"
	"math/rand"
	"time"
)

// Schedule computes per-attempt delays for bounded retries: exponential
// growth from Base, capped at Max, with up to 25% random jitter so
// concurrent clients do not retry in lockstep.
type Schedule struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns the wait before retry number attempt (attempt 0 is the
// first retry).
func (s Schedule) Delay(attempt int) time.Duration {
	if s.Base <= 0 {
		return 0
	}

	d := s.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if s.Max > 0 && d >= s.Max {
			d = s.Max
			break
		}
	}
	if s.Max > 0 && d > s.Max {
		d = s.Max
	}

	jitter := time.Duration(rand.Int63n(int64(d)/4 + 1))
	return d + jitter
}

// Sleep waits for the attempt's delay or until ctx is done, whichever
// comes first. It returns ctx.Err when the context ended the wait.
func (s Schedule) Sleep(ctx context.Context, attempt int) error {
	d := s.Delay(attempt)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
