package retry

import "time"

// ExponentialBackoff returns delay based on attempt number.
// The delay doubles with each attempt: base * 2^attempt
func ExponentialBackoff(attempt int, base time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return base * (1 << attempt)
}

// CappedBackoff is ExponentialBackoff limited to limit.
func CappedBackoff(attempt int, base, limit time.Duration) time.Duration {
	// Past 2^30 the shift overflows; any such delay is already above limit.
	if attempt > 30 {
		return limit
	}
	d := ExponentialBackoff(attempt, base)
	if d <= 0 || d > limit {
		return limit
	}
	return d
}
