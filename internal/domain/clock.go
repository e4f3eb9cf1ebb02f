package domain

import "github.com/jonboulle/clockwork"

// clock stamps ResolvedLocation.ResolvedAt, which the resolver and the CLI's
// JSON output report as the moment a location was accepted.
var clock = clockwork.NewRealClock()

// SetClock replaces the time source used for ResolvedAt so tests can assert
// exact timestamps. Passing nil restores the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
