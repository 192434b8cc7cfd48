// Package bootstrap establishes external dependency connections before the
// service starts serving traffic, retrying transient startup-ordering
// failures a bounded number of times.
package bootstrap

import (
	"math/rand"
	"time"

	"gatekeeper/config"
)

// Backoff decides how long to wait before the next connection attempt.
// The policy is injected rather than hardcoded so a deployment facing
// sustained outages can switch away from the fixed interval.
type Backoff interface {
	// Next returns the delay before attempt number attempt (1-based, the
	// attempt that just failed).
	Next(attempt int) time.Duration
}

// Fixed waits the same interval between every attempt. Appropriate for
// local or container startup races where the dependency appears shortly.
type Fixed struct {
	Interval time.Duration
}

// Next returns the fixed interval regardless of the attempt number.
func (f Fixed) Next(int) time.Duration {
	return f.Interval
}

// ExponentialWithJitter doubles the base interval per attempt, capped at
// Max, with up to 50% random jitter to avoid thundering herds.
type ExponentialWithJitter struct {
	Base time.Duration
	Max  time.Duration

	// rand returns a float in [0,1). Overridable in tests.
	rand func() float64
}

// Next returns the delay before the given attempt.
func (e ExponentialWithJitter) Next(attempt int) time.Duration {
	d := e.Base
	for i := 1; i < attempt; i++ {
		d *= 2
		if e.Max > 0 && d >= e.Max {
			d = e.Max

			break
		}
	}

	randFloat := e.rand
	if randFloat == nil {
		randFloat = rand.Float64
	}

	jitter := time.Duration(randFloat() * 0.5 * float64(d))

	return d + jitter
}

// PolicyFromConfig builds the backoff strategy named by the bootstrap
// configuration. Unknown policy names fall back to the fixed interval.
func PolicyFromConfig(cfg *config.BootstrapConfig) Backoff {
	if cfg.Policy == "exponential" {
		return ExponentialWithJitter{
			Base: cfg.RetryInterval,
			Max:  8 * cfg.RetryInterval,
		}
	}

	return Fixed{Interval: cfg.RetryInterval}
}
