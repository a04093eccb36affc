package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake for deterministic output.
// Analyze never reads it: the reference date is always an argument.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for stamping. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time from the package clock in UTC.
func Now() time.Time {
	return clock.Now().UTC()
}

// Today returns the current UTC calendar date at midnight.
func Today() time.Time {
	return TruncateDay(Now())
}

// TruncateDay drops the time-of-day from t, keeping its location.
func TruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
