// Package ratelimit implements a fixed-window request limiter keyed by client
// identity. State lives in process memory; a background sweep evicts
// identities whose whole window has aged out so the map stays bounded.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed      bool
	Remaining    int
	ResetSeconds int
}

// Limiter counts requests per identity over a trailing window.
type Limiter struct {
	window time.Duration
	limit  int
	now    func() time.Time

	mu      sync.Mutex
	entries map[string][]time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source. Tests use this to advance the window
// deterministically.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a limiter allowing limit requests per identity per window.
func New(window time.Duration, limit int, opts ...Option) *Limiter {
	l := &Limiter{
		window:  window,
		limit:   limit,
		now:     time.Now,
		entries: make(map[string][]time.Time),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records a request from identity and decides whether it may proceed.
// Timestamps outside the window are dropped before counting; when the limit
// is hit, ResetSeconds reports how long until the oldest counted request
// leaves the window.
func (l *Limiter) Allow(identity string) Decision {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[identity][:0]
	for _, ts := range l.entries[identity] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit {
		l.entries[identity] = kept
		reset := kept[0].Add(l.window).Sub(now).Seconds()
		return Decision{
			Allowed:      false,
			Remaining:    0,
			ResetSeconds: int(math.Ceil(reset)),
		}
	}

	kept = append(kept, now)
	l.entries[identity] = kept
	return Decision{
		Allowed:   true,
		Remaining: l.limit - len(kept),
	}
}

// Start launches the background sweep. The sweep runs once per window, which
// is often enough to bound memory across distinct identities.
func (l *Limiter) Start() {
	go func() {
		ticker := time.NewTicker(l.window)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.sweep()
			case <-l.stop:
				return
			}
		}
	}()
}

// Stop terminates the background sweep. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}

// Limit reports the per-identity request cap.
func (l *Limiter) Limit() int { return l.limit }

// Tracked reports how many identities currently hold window state.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// sweep deletes identities with no timestamps left inside the window.
func (l *Limiter) sweep() {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for identity, stamps := range l.entries {
		live := false
		for _, ts := range stamps {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.entries, identity)
		}
	}
}
