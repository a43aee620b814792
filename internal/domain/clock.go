package domain

import "github.com/jonboulle/clockwork"

// clock stamps report runs. Tests freeze it via SetClock for stable output.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for report timestamps. Pass nil to
// reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
