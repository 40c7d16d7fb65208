package provider

import (
	"context"
	"sync"
	"time"
)

// Limiter is a sliding-window rate limiter: at most capacity acquisitions
// within any window. Acquire blocks until the oldest recorded call leaves
// the window, so a capacity-5 limiter with a 1s window that receives six
// immediate calls delays the sixth by roughly one second.
type Limiter struct {
	mu       sync.Mutex
	capacity int
	window   time.Duration
	calls    []time.Time // acquisition timestamps, oldest first

	now   func() time.Time // overridable in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter creates a limiter allowing capacity calls per window.
func NewLimiter(capacity int, window time.Duration) *Limiter {
	return &Limiter{
		capacity: capacity,
		window:   window,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Acquire blocks until a call slot is available or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)

		if len(l.calls) < l.capacity {
			l.calls = append(l.calls, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.calls[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Available returns the number of call slots currently free. Never negative.
func (l *Limiter) Available() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())
	free := l.capacity - len(l.calls)
	if free < 0 {
		return 0
	}
	return free
}

// prune drops timestamps that left the window. Caller holds mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.calls) && !l.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.calls = append(l.calls[:0], l.calls[i:]...)
	}
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
