// Package ratelimit implements per-client admission control over a trailing window.
//
// A Limiter remembers, for every client identifier, the millisecond timestamps of the
// requests it admitted. On each call the timestamps that fell out of the window are
// dropped and the remaining count is compared with the configured maximum. Rejection
// is a normal return value carrying a retry hint, never an error.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrInvalidConfig = errors.New("invalid rate limit config")

// Config is the policy of one limiter instance.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// Validate reports whether both the request budget and the window are positive.
// Windows below one millisecond are rejected because admission works on ms timestamps.
func (c Config) Validate() error {
	if c.MaxRequests <= 0 {
		return fmt.Errorf("%w: max requests must be positive, got %d", ErrInvalidConfig, c.MaxRequests)
	}
	if c.Window < time.Millisecond {
		return fmt.Errorf("%w: window must be at least 1ms, got %s", ErrInvalidConfig, c.Window)
	}
	return nil
}

func (c Config) WindowMillis() int64 {
	return c.Window.Milliseconds()
}

// RetryAfterSeconds is ceil(window / 1s). It depends on configuration only.
func (c Config) RetryAfterSeconds() int {
	ms := c.WindowMillis()
	return int((ms + 999) / 1000)
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed bool
	// RetryAfterSeconds is set on rejection to the static window length in seconds.
	RetryAfterSeconds int
	// Remaining is the number of requests the client may still issue in the current window.
	Remaining int
	// RetryAt is the millisecond instant the oldest retained request leaves the window.
	// Set on rejection only; informational.
	RetryAt int64
}

// Limiter is safe for concurrent use. The zero value is not usable; call New.
type Limiter struct {
	cfg   Config
	now   func() time.Time
	mu    sync.Mutex
	state map[string][]int64
}

type Option func(*Limiter)

// WithClock overrides the clock used by Allow.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

func New(cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &Limiter{
		cfg:   cfg,
		now:   time.Now,
		state: make(map[string][]int64),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Limiter) Config() Config {
	return l.cfg
}

// Allow admits clientID at the limiter's current time.
func (l *Limiter) Allow(clientID string) Decision {
	return l.Admit(clientID, l.now().UnixMilli())
}

// Admit decides whether clientID may issue a request at nowMillis.
// The filter, the count check and the append happen under one lock.
func (l *Limiter) Admit(clientID string, nowMillis int64) Decision {
	windowMs := l.cfg.WindowMillis()

	l.mu.Lock()
	defer l.mu.Unlock()

	retained := retain(l.state[clientID], nowMillis, windowMs)

	if len(retained) >= l.cfg.MaxRequests {
		l.store(clientID, retained)
		return Decision{
			Allowed:           false,
			RetryAfterSeconds: l.cfg.RetryAfterSeconds(),
			Remaining:         0,
			RetryAt:           oldest(retained) + windowMs,
		}
	}

	retained = append(retained, nowMillis)
	l.store(clientID, retained)
	return Decision{
		Allowed:   true,
		Remaining: l.cfg.MaxRequests - len(retained),
	}
}

// Sweep forgets clients none of whose timestamps are inside the window at nowMillis
// and returns how many were removed. A forgotten client is indistinguishable from
// one with an empty record, so sweeping never changes an admission outcome.
func (l *Limiter) Sweep(nowMillis int64) int {
	windowMs := l.cfg.WindowMillis()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for clientID, stamps := range l.state {
		if len(retain(stamps, nowMillis, windowMs)) == 0 {
			delete(l.state, clientID)
			removed++
		}
	}
	return removed
}

// SweepNow runs Sweep at the limiter's current time.
func (l *Limiter) SweepNow() int {
	return l.Sweep(l.now().UnixMilli())
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.state)
}

// Reset drops all client records.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.state = make(map[string][]int64)
	l.mu.Unlock()
}

func (l *Limiter) store(clientID string, stamps []int64) {
	if stamps == nil {
		stamps = []int64{}
	}
	l.state[clientID] = stamps
}

func oldest(stamps []int64) int64 {
	min := stamps[0]
	for _, t := range stamps[1:] {
		if t < min {
			min = t
		}
	}
	return min
}

// retain filters stamps in place, keeping t with now - t < window.
func retain(stamps []int64, nowMillis, windowMs int64) []int64 {
	kept := stamps[:0]
	for _, t := range stamps {
		if nowMillis-t < windowMs {
			kept = append(kept, t)
		}
	}
	return kept
}
