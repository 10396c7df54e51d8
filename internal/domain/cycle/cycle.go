// Package cycle maps wall-clock time to scoring cycle keys.
//
// A cycle is identified by the local time at which it closes, formatted
// as YYYY-MM-DD-HH:00. The cycle keyed 2026-08-25-18:00 covers the span
// (2026-08-24 18:00, 2026-08-25 18:00]. Every per-cycle collection in
// the store is partitioned by this key, so all boundary decisions live
// here and nowhere else.
package cycle

import (
	"fmt"
	"time"
)

// DefaultCloseHour anchors cycles to 18:00 local reference time.
const DefaultCloseHour = 18

const keyLayout = "2006-01-02-15:04"

// Clock resolves cycle keys. The time source is injectable for tests.
type Clock struct {
	closeHour int
	now       func() time.Time
}

// Option applies a configuration option to the Clock.
type Option func(*Clock)

// WithCloseHour overrides the cycle close hour (0-23).
func WithCloseHour(h int) Option {
	return func(c *Clock) {
		if h >= 0 && h < 24 {
			c.closeHour = h
		}
	}
}

// WithNowFunc overrides the time source.
func WithNowFunc(f func() time.Time) Option {
	return func(c *Clock) {
		if f != nil {
			c.now = f
		}
	}
}

// New constructs a Clock with the default 18:00 boundary.
func New(opts ...Option) *Clock {
	c := &Clock{
		closeHour: DefaultCloseHour,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the clock's current time.
func (c *Clock) Now() time.Time { return c.now() }

// CloseHour returns the configured close hour.
func (c *Clock) CloseHour() int { return c.closeHour }

func (c *Clock) keyFor(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d-%02d:00", t.Year(), t.Month(), t.Day(), c.closeHour)
}

// KeyAt returns the key of the cycle that t falls into. At exactly the
// close boundary the day's cycle has already closed, so the instant
// belongs to the next cycle.
func (c *Clock) KeyAt(t time.Time) string {
	if t.Hour() < c.closeHour {
		return c.keyFor(t)
	}
	return c.keyFor(t.AddDate(0, 0, 1))
}

// Current returns the key of the cycle accepting points right now.
func (c *Clock) Current() string { return c.KeyAt(c.now()) }

// LatestClosed returns the key of the most recently completed cycle:
// before the boundary that is yesterday's key, at/after it is today's.
func (c *Clock) LatestClosed() string {
	t := c.now()
	if t.Hour() < c.closeHour {
		return c.keyFor(t.AddDate(0, 0, -1))
	}
	return c.keyFor(t)
}

// ClosedOffset returns the completed-cycle key daysAgo days before the
// most recently completed one. ClosedOffset(0) == LatestClosed().
func (c *Clock) ClosedOffset(daysAgo int) string {
	t := c.now()
	if t.Hour() < c.closeHour {
		t = t.AddDate(0, 0, -1)
	}
	return c.keyFor(t.AddDate(0, 0, -daysAgo))
}

// NextClose returns the instant at which the current cycle closes.
func (c *Clock) NextClose() time.Time {
	t := c.now()
	close := time.Date(t.Year(), t.Month(), t.Day(), c.closeHour, 0, 0, 0, t.Location())
	if !t.Before(close) {
		close = close.AddDate(0, 0, 1)
	}
	return close
}

// Bounds returns the start and end instants of the cycle named by key.
// The start is exclusive, the end inclusive.
func (c *Clock) Bounds(key string) (start, end time.Time, err error) {
	end, err = time.ParseInLocation(keyLayout, key, c.now().Location())
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	return end.AddDate(0, 0, -1), end, nil
}

// Valid reports whether key parses as a cycle key.
func (c *Clock) Valid(key string) bool {
	_, err := time.Parse(keyLayout, key)
	return err == nil
}
