// Package retry provides bounded exponential backoff.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Config controls retry behaviour
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultConfig returns a conservative retry policy
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	}
}

// Do runs fn until it succeeds or attempts are exhausted
func Do(cfg Config, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt < cfg.MaxAttempts-1 {
			delay := time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt)))
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}

			jitter := time.Duration(rand.Float64() * float64(delay) * 0.1)
			time.Sleep(delay + jitter)
		}
	}

	return lastErr
}
