package worker

import (
	"math"
	"time"
)

// RetryPolicy controls how often a failed Sheets sync task is retried before
// it is moved to the dead letter queue.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// withDefaults fills zero fields with the sync worker defaults:
// five attempts, 2s doubling up to a minute.
func (r RetryPolicy) withDefaults() RetryPolicy {
	if r.MaxRetries <= 0 {
		r.MaxRetries = 5
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = 2 * time.Second
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = time.Minute
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}
	return r
}

// Exhausted reports whether attempt (1-based) is the last one allowed.
func (r RetryPolicy) Exhausted(attempt int) bool {
	return r.MaxRetries > 0 && attempt >= r.MaxRetries
}

// NextDelay is the wait before the given attempt. Attempts below 1 count as 1.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	attempt = max(attempt, 1)
	base := r.InitialDelay
	if base <= 0 {
		base = time.Second
	}
	factor := r.BackoffFactor
	if factor <= 0 {
		factor = 2
	}

	d := time.Duration(float64(base) * math.Pow(factor, float64(attempt-1)))
	switch {
	case d <= 0:
		// float overflow on very large attempts
		d = r.MaxDelay
		if d <= 0 {
			d = base
		}
	case r.MaxDelay > 0 && d > r.MaxDelay:
		d = r.MaxDelay
	}
	return d
}
