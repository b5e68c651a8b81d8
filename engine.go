package retrypolicy

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	pkgerrors "github.com/JohnPlummer/jp-go-errors"
)

// Engine drives the attempt loop for a Policy and produces a Result. One
// engine serves many policies and many concurrent executions; all
// per-execution state lives on the Execute call's stack, so the engine itself
// holds only the logger, the injected clock and sleeper, and aggregate
// statistics.
type Engine struct {
	logger *slog.Logger
	clock  func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	stats  *engineStats
}

// engineStats tracks execution statistics across all policies an engine runs.
type engineStats struct {
	mu                 sync.RWMutex
	totalExecutions    int64
	totalAttempts      int64
	totalBailouts      int64
	totalExhaustions   int64
	totalFailures      int64
	totalCancellations int64
	lastExecutionTime  time.Time
	lastError          error
}

// NewEngine creates an execution engine.
// It applies the provided options to configure logging and time handling.
//
// Example:
//
//	engine := retrypolicy.NewEngine(
//	    retrypolicy.WithLogger(logger),
//	)
func NewEngine(opts ...EngineOption) *Engine {
	config := DefaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}

	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.Sleep == nil {
		config.Sleep = sleepContext
	}

	return &Engine{
		logger: config.Logger,
		clock:  config.Clock,
		sleep:  config.Sleep,
		stats:  &engineStats{},
	}
}

// Execute runs the policy's attempt loop and returns the structured result.
// It is a package-level function rather than a method because Go methods
// cannot introduce type parameters.
//
// Exhaustion is an expected outcome and is reported via Result.Outcome, never
// as an error; per-attempt failures are absorbed into Result.History. The
// error return is non-nil only when the caller's context aborts the
// execution, in which case the result carries OutcomeCancelled and the
// attempts made so far.
func Execute[T any](ctx context.Context, e *Engine, policy Policy[T]) (Result[T], error) {
	result := Result[T]{FinalValue: policy.initial}

	if policy.operation == nil {
		// Zero-value policies never pass Build; fail loudly rather than loop.
		return result, &ConfigurationError{Fields: []string{"operation is required"}}
	}

	// Check if the context is already done before attempting any invocation.
	select {
	case <-ctx.Done():
		e.logger.Warn("context already done before execution (expected condition)",
			"error", ctx.Err())
		result.Outcome = OutcomeCancelled
		e.recordExecution(result.Outcome, 0, ctx.Err())
		return result, ctx.Err()
	default:
	}

	current := policy.initial
	history := make([]Attempt[T], 0, policy.maxAttempts)

	// Build guarantees maxAttempts >= 1; the budget check below is the only
	// way out of the loop besides an early return.
	for attempt := 1; ; attempt++ {
		value, elapsed, err := invoke(ctx, e, policy)

		record := Attempt[T]{Index: attempt, Err: err, Elapsed: elapsed}
		if err == nil {
			current = value
			record.Value = value
		}
		history = append(history, record)

		if err != nil {
			if ctx.Err() != nil {
				e.logger.Warn("execution cancelled mid-attempt",
					"attempt", attempt,
					"error", ctx.Err())
				result.FinalValue = current
				result.AttemptsMade = attempt
				result.Outcome = OutcomeCancelled
				result.History = history
				e.recordExecution(result.Outcome, attempt, ctx.Err())
				return result, ctx.Err()
			}

			if policy.errorAsBailout || !policy.classifier.IsRetryable(err) {
				e.logger.Warn("terminal invocation failure, giving up",
					"attempt", attempt,
					"error", err)
				result.FinalValue = current
				result.AttemptsMade = attempt
				result.Outcome = OutcomeOperationFailed
				result.History = history
				e.recordExecution(result.Outcome, attempt, err)
				return result, nil
			}

			e.logger.Debug("invocation failed, retrying",
				"attempt", attempt,
				"error", err)
		} else if policy.bailout(current) {
			outcome := OutcomeBailedOut
			if policy.bailoutIsSuccess {
				outcome = OutcomeSucceeded
			}
			if attempt > 1 {
				e.logger.Info("bailout satisfied after retry",
					"attempts", attempt,
					"outcome", outcome.String())
			}
			result.FinalValue = current
			result.AttemptsMade = attempt
			result.Outcome = outcome
			result.History = history
			e.recordExecution(result.Outcome, attempt, nil)
			return result, nil
		}

		if attempt == policy.maxAttempts {
			e.logger.Debug("attempt budget exhausted",
				"attempts", attempt,
				"last_error", record.Err)
			result.FinalValue = current
			result.AttemptsMade = attempt
			result.Outcome = OutcomeExhausted
			result.History = history
			e.recordExecution(result.Outcome, attempt, record.Err)
			return result, nil
		}

		if err := e.sleep(ctx, policy.backoff(attempt)); err != nil {
			e.logger.Warn("execution cancelled during backoff",
				"attempts", attempt,
				"error", err)
			result.FinalValue = current
			result.AttemptsMade = attempt
			result.Outcome = OutcomeCancelled
			result.History = history
			e.recordExecution(result.Outcome, attempt, err)
			return result, err
		}
	}
}

// Do runs the policy on a throwaway engine with default configuration.
// Use an explicit Engine to share a logger or collect statistics.
func Do[T any](ctx context.Context, policy Policy[T]) (Result[T], error) {
	return Execute(ctx, NewEngine(), policy)
}

// invoke performs one attempt, bounded by the policy's per-attempt timeout
// when set. An attempt that ran out of its own deadline while the parent
// context is still live is reported as a timeout failure, so it is
// distinguishable from caller cancellation and retried like any other
// failure.
func invoke[T any](ctx context.Context, e *Engine, policy Policy[T]) (T, time.Duration, error) {
	attemptCtx := ctx
	cancel := func() {}
	if policy.perAttemptTimeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, policy.perAttemptTimeout)
	}

	start := e.clock()
	value, err := policy.operation(attemptCtx)
	elapsed := e.clock().Sub(start)
	cancel()

	if err != nil && policy.perAttemptTimeout > 0 && ctx.Err() == nil &&
		errors.Is(err, context.DeadlineExceeded) {
		err = pkgerrors.NewTimeoutError("attempt exceeded per-attempt timeout",
			"execute", policy.perAttemptTimeout)
	}

	return value, elapsed, err
}

// recordExecution updates the aggregate counters after an execution stops.
func (e *Engine) recordExecution(outcome Outcome, attempts int, err error) {
	e.stats.mu.Lock()
	defer e.stats.mu.Unlock()

	e.stats.totalExecutions++
	e.stats.totalAttempts += int64(attempts)
	e.stats.lastExecutionTime = e.clock()
	e.stats.lastError = err

	switch outcome {
	case OutcomeSucceeded, OutcomeBailedOut:
		e.stats.totalBailouts++
	case OutcomeExhausted:
		e.stats.totalExhaustions++
	case OutcomeOperationFailed:
		e.stats.totalFailures++
	case OutcomeCancelled:
		e.stats.totalCancellations++
	}
}

// EngineStats holds statistics about the executions an engine has run.
type EngineStats struct {
	// TotalExecutions is the number of Execute calls that have completed.
	TotalExecutions int64

	// TotalAttempts is the total number of operation invocations across all
	// executions.
	TotalAttempts int64

	// TotalBailouts is the number of executions stopped by the bailout
	// predicate, under either labelling convention.
	TotalBailouts int64

	// TotalExhaustions is the number of executions that consumed their whole
	// attempt budget.
	TotalExhaustions int64

	// TotalFailures is the number of executions stopped by a terminal
	// invocation failure.
	TotalFailures int64

	// TotalCancellations is the number of executions aborted by the caller's
	// context.
	TotalCancellations int64

	// LastExecutionTime is the time the most recent execution completed.
	LastExecutionTime time.Time

	// LastError is the last terminal error encountered (if any).
	LastError error
}

// Stats returns statistics about the executions this engine has run.
// This method is thread-safe and returns a snapshot of the current statistics.
func (e *Engine) Stats() EngineStats {
	e.stats.mu.RLock()
	defer e.stats.mu.RUnlock()

	return EngineStats{
		TotalExecutions:    e.stats.totalExecutions,
		TotalAttempts:      e.stats.totalAttempts,
		TotalBailouts:      e.stats.totalBailouts,
		TotalExhaustions:   e.stats.totalExhaustions,
		TotalFailures:      e.stats.totalFailures,
		TotalCancellations: e.stats.totalCancellations,
		LastExecutionTime:  e.stats.lastExecutionTime,
		LastError:          e.stats.lastError,
	}
}
