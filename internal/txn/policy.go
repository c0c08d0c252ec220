// Copyright (c) 2025 PawHaven
// SPDX-License-Identifier: MIT

package txn

import "time"

// Policy bounds transaction retries. Attempts are counted, not
// wall-clock limited: an operation is tried at most MaxAttempts times
// with an exponentially growing delay in between.
type Policy struct {
	MaxAttempts int           // total attempts including the first
	BaseDelay   time.Duration // delay before the first retry
	Multiplier  int           // growth factor per retry
	MaxDelay    time.Duration // cap on any single delay
}

// DefaultPolicy returns the retry bounds used when the caller supplies
// none: three attempts, 100ms doubling, capped at 5s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		Multiplier:  2,
		MaxDelay:    5 * time.Second,
	}
}

// normalize fills nonsensical fields with defaults.
func (p Policy) normalize() Policy {
	def := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = def.Multiplier
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	return p
}

// Delay returns the backoff before retry number n (1-based): base on the
// first retry, multiplied per subsequent retry, capped at MaxDelay.
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := p.BaseDelay
	for i := 1; i < n; i++ {
		d *= time.Duration(p.Multiplier)
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
