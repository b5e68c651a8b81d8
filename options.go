package retrypolicy

import (
	"context"
	"log/slog"
	"time"
)

// EngineConfig holds engine configuration options. The engine is the reusable
// piece; everything that varies per execution lives on the Policy instead.
type EngineConfig struct {
	// Logger for execution events.
	// Default: slog.Default()
	Logger *slog.Logger

	// Clock supplies the current time for attempt timing.
	// Default: time.Now
	Clock func() time.Time

	// Sleep waits between attempts and must return the context error promptly
	// when the context is cancelled mid-wait.
	// Default: a timer-based cancellable wait
	Sleep func(ctx context.Context, d time.Duration) error
}

// EngineOption is a functional option for configuring an Engine.
type EngineOption func(*EngineConfig)

// WithLogger sets a custom logger for execution events.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	retrypolicy.WithLogger(logger)
func WithLogger(logger *slog.Logger) EngineOption {
	return func(c *EngineConfig) {
		c.Logger = logger
	}
}

// WithClock sets the clock used to time attempts. Inject a fake clock to make
// attempt durations deterministic in tests.
func WithClock(clock func() time.Time) EngineOption {
	return func(c *EngineConfig) {
		c.Clock = clock
	}
}

// WithSleep sets the function used for backoff waits. Inject a recording
// sleeper to assert on delays without slowing tests down.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) EngineOption {
	return func(c *EngineConfig) {
		c.Sleep = sleep
	}
}

// DefaultEngineConfig returns engine configuration with sensible defaults.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Logger: slog.Default(),
		Clock:  time.Now,
		Sleep:  sleepContext,
	}
}

// sleepContext waits for d or until the context is done, whichever comes
// first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
