// Package backoff computes retry delays for failed upload attempts.
package backoff

import "time"

// Policy describes a capped exponential backoff.
type Policy struct {
	// Base is the delay after the first failed attempt.
	Base time.Duration
	// Max caps the delay. Zero or negative means uncapped.
	Max time.Duration
}

// Delay returns min(Base * 2^(attempts-1), Max) for attempts >= 1.
// Attempts below 1 are treated as 1.
func (p Policy) Delay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	if p.Base <= 0 {
		return 0
	}
	d := p.Base
	for i := 1; i < attempts; i++ {
		// stop doubling once the cap is hit or the next shift would overflow
		if p.Max > 0 && d >= p.Max {
			break
		}
		if d > (1<<62)/2 {
			break
		}
		d *= 2
	}
	if p.Max > 0 && d > p.Max {
		d = p.Max
	}
	return d
}

// Next returns the time at which the next attempt becomes due.
func (p Policy) Next(now time.Time, attempts int) time.Time {
	return now.Add(p.Delay(attempts))
}
