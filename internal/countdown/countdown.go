// internal/countdown/countdown.go

// Package countdown renders the per-turn time bar. It is presentation only:
// the server decides when the bomb explodes.
package countdown

import (
	"time"

	"github.com/jason-s-yu/bombparty/internal/session"
)

// DefaultDuration matches the length of the original turn animation.
const DefaultDuration = 25 * time.Second

// Timer decays linearly from full to empty over its duration, restarting
// whenever the turn identity changes.
type Timer struct {
	duration time.Duration
	key      session.TurnKey
	started  time.Time
	running  bool
}

// New returns a stopped timer. A non-positive duration falls back to DefaultDuration.
func New(d time.Duration) *Timer {
	if d <= 0 {
		d = DefaultDuration
	}
	return &Timer{duration: d}
}

// Duration is the length of one full decay.
func (t *Timer) Duration() time.Duration {
	return t.duration
}

// Observe restarts the decay at now if key differs from the last observed
// turn. It reports whether a restart happened.
func (t *Timer) Observe(key session.TurnKey, now time.Time) bool {
	if t.running && key == t.key {
		return false
	}
	t.key = key
	t.started = now
	t.running = true
	return true
}

// Stop freezes the timer at empty until the next turn is observed.
func (t *Timer) Stop() {
	t.running = false
	t.key = session.TurnKey{}
}

// Running reports whether a turn is being timed.
func (t *Timer) Running() bool {
	return t.running
}

// Remaining is the time left in the current turn, never negative.
func (t *Timer) Remaining(now time.Time) time.Duration {
	if !t.running {
		return 0
	}
	left := t.duration - now.Sub(t.started)
	switch {
	case left < 0:
		return 0
	case left > t.duration:
		return t.duration
	}
	return left
}

// Fraction is the remaining share of the turn in [0, 1].
func (t *Timer) Fraction(now time.Time) float64 {
	return float64(t.Remaining(now)) / float64(t.duration)
}
