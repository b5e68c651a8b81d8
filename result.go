package retrypolicy

import (
	"time"
)

// Outcome records why an execution stopped. The engine reports the reason
// and leaves its interpretation to the caller: whether a bailout is good news
// depends entirely on the predicate's semantics.
type Outcome int

const (
	// OutcomeUnknown is the zero value of an unexecuted result.
	OutcomeUnknown Outcome = iota

	// OutcomeSucceeded means the bailout predicate was satisfied by a
	// successful attempt and the policy interprets bailout as success.
	OutcomeSucceeded

	// OutcomeBailedOut means the bailout predicate was satisfied and further
	// attempts were skipped.
	OutcomeBailedOut

	// OutcomeExhausted means the attempt budget was consumed without a
	// bailout signal. This is an expected outcome, never an error.
	OutcomeExhausted

	// OutcomeOperationFailed means an invocation failure was terminal, either
	// because the policy treats failures as bailout signals or because the
	// error classifier judged it non-retryable.
	OutcomeOperationFailed

	// OutcomeCancelled means the caller's context was cancelled mid-attempt
	// or mid-sleep and the remaining attempts were abandoned.
	OutcomeCancelled
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeBailedOut:
		return "bailed-out"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeOperationFailed:
		return "operation-failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Attempt is the record of one invocation of the operation. Exactly one of
// Value and Err is meaningful: Value holds the produced result when Err is
// nil, and is the zero value of T otherwise.
type Attempt[T any] struct {
	// Index is the 1-based position of the attempt within the execution.
	Index int

	// Value is the result the operation produced, if it succeeded.
	Value T

	// Err is the invocation failure, if any. Per-attempt timeouts are
	// recorded as jp-go-errors timeout errors.
	Err error

	// Elapsed is how long the invocation took.
	Elapsed time.Duration
}

// Result is the structured report of one execution. It is created fresh per
// Execute call, owned by the caller thereafter, and never mutated by the
// engine again.
type Result[T any] struct {
	// FinalValue is the most recent value a successful attempt produced, or
	// the policy's initial value when every attempt failed or none ran.
	FinalValue T

	// AttemptsMade is the number of attempts performed. Never exceeds the
	// policy's budget, and always equals len(History).
	AttemptsMade int

	// Outcome records why the execution stopped.
	Outcome Outcome

	// History is the ordered record of every attempt made.
	History []Attempt[T]
}

// Succeeded reports whether the execution stopped with OutcomeSucceeded.
func (r Result[T]) Succeeded() bool {
	return r.Outcome == OutcomeSucceeded
}

// BailedOut reports whether the execution stopped because the bailout
// predicate was satisfied, under either labelling convention.
func (r Result[T]) BailedOut() bool {
	return r.Outcome == OutcomeBailedOut || r.Outcome == OutcomeSucceeded
}

// Exhausted reports whether the execution consumed its whole attempt budget.
func (r Result[T]) Exhausted() bool {
	return r.Outcome == OutcomeExhausted
}

// Cancelled reports whether the execution was aborted by the caller's context.
func (r Result[T]) Cancelled() bool {
	return r.Outcome == OutcomeCancelled
}

// LastAttempt returns the final recorded attempt, if any attempt ran.
func (r Result[T]) LastAttempt() (Attempt[T], bool) {
	if len(r.History) == 0 {
		return Attempt[T]{}, false
	}
	return r.History[len(r.History)-1], true
}

// LastError returns the failure of the final recorded attempt, or nil if the
// final attempt succeeded or no attempt ran. Callers inspecting an exhausted
// run use this to see whether the last attempt was itself a failure.
func (r Result[T]) LastError() error {
	last, ok := r.LastAttempt()
	if !ok {
		return nil
	}
	return last.Err
}
