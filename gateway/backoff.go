package gateway

import "time"

// BaseDelay is the starting delay DefaultBackoff returns for attempt 0.
const BaseDelay = 1 * time.Second

// MaxDelay caps the delay DefaultBackoff will ever return.
const MaxDelay = 60 * time.Second

// backoffJitterFactor is the maximum fraction of the delay added as jitter.
const backoffJitterFactor = 0.5

// DefaultBackoff computes an exponential, jittered delay for the given
// (zero-indexed) reconnect attempt count: 1s, 2s, 4s, ..., capped at
// MaxDelay, plus 0-50% jitter.
//
// The core Shard state machine intentionally has no opinion on pacing —
// ReconnectError simply reports the attempt count and lets the caller
// decide how long to wait before calling NextEvent again. DefaultBackoff is
// that decision, pulled out so a reference runner doesn't have to invent
// one, without baking pacing into the shard itself.
func DefaultBackoff(attempt int) time.Duration {
	if attempt > 6 {
		attempt = 6
	}
	delay := BaseDelay * time.Duration(1<<uint(attempt))
	if delay > MaxDelay {
		delay = MaxDelay
	}
	jitterMax := time.Duration(float64(delay) * backoffJitterFactor)
	return delay + uniformJitter(jitterMax)
}
