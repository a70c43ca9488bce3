package provider

import (
	"context"
	"sync"
	"time"
)

// Limiter blocks the caller until another request fits the budget
type Limiter interface {
	Wait(ctx context.Context) error
}

// Clock abstracts time so the limiter can run on simulated time in tests
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RealClock is the wall clock
var RealClock Clock = realClock{}

// WindowLimiter admits at most limit calls in any rolling window.
// It keeps a log of admitted call times; a blocked caller sleeps until the
// oldest entry leaves the window, then re-checks. Only the caller blocks.
// ⭐ SSOT: FMP 호출 예산(기본 750회/60초)은 여기서만 관리
type WindowLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	clock  Clock
	calls  []time.Time // ascending
}

// NewWindowLimiter creates a limiter on the wall clock
func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	return NewWindowLimiterWithClock(limit, window, RealClock)
}

// NewWindowLimiterWithClock creates a limiter on the given clock
func NewWindowLimiterWithClock(limit int, window time.Duration, clock Clock) *WindowLimiter {
	if limit < 1 {
		limit = 1
	}
	return &WindowLimiter{
		limit:  limit,
		window: window,
		clock:  clock,
		calls:  make([]time.Time, 0, limit),
	}
}

// Wait blocks until a call is admitted or ctx is done
func (l *WindowLimiter) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait, ok := l.reserve()
		if ok {
			return nil
		}
		if err := l.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// reserve records a call if the window has room, else reports how long to wait
func (l *WindowLimiter) reserve() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	cutoff := now.Add(-l.window)

	drop := 0
	for drop < len(l.calls) && !l.calls[drop].After(cutoff) {
		drop++
	}
	if drop > 0 {
		l.calls = append(l.calls[:0], l.calls[drop:]...)
	}

	if len(l.calls) < l.limit {
		l.calls = append(l.calls, now)
		return 0, true
	}
	return l.calls[0].Add(l.window).Sub(now), false
}

// InFlight returns the number of calls inside the current window
func (l *WindowLimiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.clock.Now().Add(-l.window)
	n := 0
	for _, t := range l.calls {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}
