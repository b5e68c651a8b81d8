package retrypolicy

import (
	"math/rand"
	"time"

	"github.com/sethvargo/go-retry"
)

// Backoff maps a 1-based attempt index to the delay imposed before the next
// attempt. Strategies must be pure: the same index always yields the same
// delay, unless the strategy is explicitly wrapped with WithJitter.
//
// The engine calls the strategy after every non-terminal attempt, so a run of
// N attempts invokes it exactly N-1 times. A zero return means immediate
// retry; the engine does not clamp it.
type Backoff func(attempt int) time.Duration

// NoBackoff returns a strategy with no delay between attempts.
// This is the documented default when a policy sets no backoff.
func NoBackoff() Backoff {
	return func(attempt int) time.Duration {
		return 0
	}
}

// ConstantBackoff returns a strategy with the same delay between all attempts.
//
// Example:
//
//	retrypolicy.ConstantBackoff(2 * time.Second)
//	// Delays: 2s, 2s, 2s, 2s
func ConstantBackoff(delay time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return delay
	}
}

// LinearBackoff returns a strategy whose delay grows by initial with each
// attempt.
//
// Example:
//
//	retrypolicy.LinearBackoff(time.Second)
//	// Delays: 1s, 2s, 3s, 4s
func LinearBackoff(initial time.Duration) Backoff {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			return 0
		}
		return initial * time.Duration(attempt)
	}
}

// ExponentialBackoff returns a strategy whose delay grows by the given
// multiplier with each attempt: initial * multiplier^(attempt-1).
// A multiplier <= 0 defaults to 2.0 (doubling).
//
// Example:
//
//	retrypolicy.ExponentialBackoff(time.Second, 2.0)
//	// Delays: 1s, 2s, 4s, 8s, 16s
func ExponentialBackoff(initial time.Duration, multiplier float64) Backoff {
	if multiplier <= 0 {
		multiplier = 2.0
	}

	// For a multiplier of exactly 2.0, replay the library implementation so
	// the delay table matches go-retry's exponential sequence.
	if multiplier == 2.0 {
		return func(attempt int) time.Duration {
			return replay(retry.NewExponential(initial), attempt)
		}
	}

	return func(attempt int) time.Duration {
		if attempt < 1 {
			return 0
		}
		delay := float64(initial)
		for i := 1; i < attempt; i++ {
			delay *= multiplier
			// Prevent overflow
			if delay > float64(1<<62) {
				return time.Duration(1 << 62)
			}
		}
		return time.Duration(delay)
	}
}

// FibonacciBackoff returns a strategy whose delays follow go-retry's
// fibonacci sequence scaled by initial.
//
// Example:
//
//	retrypolicy.FibonacciBackoff(time.Second)
//	// Delays: 1s, 1s, 2s, 3s, 5s, 8s
func FibonacciBackoff(initial time.Duration) Backoff {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			return 0
		}
		// go-retry seeds its fibonacci state so the first step is already
		// 2x base; pin the first delay and replay from one step behind to
		// keep the classic 1, 1, 2, 3, 5 table.
		if attempt == 1 {
			return initial
		}
		return replay(retry.NewFibonacci(initial), attempt-1)
	}
}

// replay advances a stateful go-retry backoff to the given attempt index.
// Instantiating a fresh backoff per call keeps the strategy pure in the
// attempt index.
func replay(b retry.Backoff, attempt int) time.Duration {
	var delay time.Duration
	for i := 0; i < attempt; i++ {
		next, stop := b.Next()
		if stop {
			break
		}
		delay = next
	}
	return delay
}

// WithCap caps the delay produced by the wrapped strategy.
//
// Example:
//
//	retrypolicy.WithCap(30*time.Second, retrypolicy.ExponentialBackoff(time.Second, 2.0))
//	// Delays: 1s, 2s, 4s, 8s, 16s, 30s, 30s
func WithCap(ceiling time.Duration, next Backoff) Backoff {
	return func(attempt int) time.Duration {
		delay := next(attempt)
		if delay > ceiling {
			return ceiling
		}
		return delay
	}
}

// WithJitter adds random jitter of up to fraction of the base delay, in both
// directions, to the wrapped strategy. The randomness source is injected so
// tests can make the strategy deterministic; a nil source falls back to a
// time-seeded one. A shared *rand.Rand is not safe for concurrent executions;
// give each execution its own source or a locked one.
//
// Example:
//
//	retrypolicy.WithJitter(0.1, nil, retrypolicy.ConstantBackoff(time.Second))
//	// Delays: ~0.9s-1.1s each
func WithJitter(fraction float64, source *rand.Rand, next Backoff) Backoff {
	if source == nil {
		source = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return func(attempt int) time.Duration {
		delay := next(attempt)
		if fraction <= 0 || delay <= 0 {
			return delay
		}
		spread := float64(delay) * fraction
		jitter := (source.Float64()*2 - 1) * spread
		jittered := time.Duration(float64(delay) + jitter)
		if jittered < 0 {
			return 0
		}
		return jittered
	}
}
