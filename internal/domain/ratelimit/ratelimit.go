// Package ratelimit provides a fixed-window request throttle keyed by
// (actor, action). It is a best-effort abuse deterrent, not a security
// boundary: slight over- or under-counting under concurrent bursts is
// acceptable.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/willerob90/SubGames-Working/pkg/metrics"
)

// Action names throttled by the service.
const (
	ActionSessionStart  = "session_start"
	ActionChannelLookup = "channel_lookup"
	ActionReferralClick = "referral_click"
)

// Policy configures the ceiling for one action.
type Policy struct {
	Limit  int
	Window time.Duration
}

// DefaultPolicies returns the stock per-action ceilings.
func DefaultPolicies() map[string]Policy {
	return map[string]Policy{
		ActionSessionStart:  {Limit: 30, Window: time.Hour},
		ActionChannelLookup: {Limit: 5, Window: 10 * time.Minute},
		ActionReferralClick: {Limit: 10, Window: time.Hour},
	}
}

// RateLimitedError reports a rejected request with an estimated wait.
type RateLimitedError struct {
	Action     string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited on %s, retry after %s", e.Action, e.RetryAfter.Round(time.Second))
}

type window struct {
	count int
	start time.Time
}

// Limiter counts requests per (actor, action) inside fixed windows.
type Limiter struct {
	mu       sync.Mutex
	policies map[string]Policy
	fallback Policy
	windows  map[string]*window
	now      func() time.Time
}

// Option applies a configuration option to the Limiter.
type Option func(*Limiter)

// WithPolicies replaces the per-action policy table.
func WithPolicies(p map[string]Policy) Option {
	return func(l *Limiter) {
		if len(p) > 0 {
			l.policies = p
		}
	}
}

// WithFallbackPolicy sets the policy for actions not in the table.
func WithFallbackPolicy(p Policy) Option {
	return func(l *Limiter) {
		if p.Limit > 0 && p.Window > 0 {
			l.fallback = p
		}
	}
}

// WithNowFunc overrides the time source.
func WithNowFunc(f func() time.Time) Option {
	return func(l *Limiter) {
		if f != nil {
			l.now = f
		}
	}
}

// New constructs a Limiter with the default policies.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		policies: DefaultPolicies(),
		fallback: Policy{Limit: 60, Window: time.Hour},
		windows:  make(map[string]*window),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records one request for (actor, action). It returns a
// *RateLimitedError once the window's ceiling is exceeded, nil
// otherwise.
func (l *Limiter) Allow(ctx context.Context, actor, action string) error {
	policy, ok := l.policies[action]
	if !ok {
		policy = l.fallback
	}
	key := actor + "\x00" + action
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[key]
	if !exists || now.Sub(w.start) >= policy.Window {
		l.windows[key] = &window{count: 1, start: now}
		return nil
	}

	w.count++
	if w.count > policy.Limit {
		metrics.RecordRateLimited(action)
		return &RateLimitedError{
			Action:     action,
			RetryAfter: policy.Window - now.Sub(w.start),
		}
	}
	return nil
}

// Cleanup drops windows that ended long enough ago to be irrelevant.
// Call periodically to bound memory.
func (l *Limiter) Cleanup(ctx context.Context) int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		action := keyAction(key)
		policy, ok := l.policies[action]
		if !ok {
			policy = l.fallback
		}
		if now.Sub(w.start) >= 2*policy.Window {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// Size returns the number of live windows.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

func keyAction(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == 0 {
			return key[i+1:]
		}
	}
	return key
}
