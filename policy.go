package retrypolicy

import (
	"time"
)

// Policy is the immutable bundle of operation, bailout predicate, backoff
// strategy, and attempt budget that fully determines one execution's
// behavior. Build one with a Builder; once built it is read-only and safe to
// reuse across concurrent executions, since all per-execution state (attempt
// counter, history, current value) is local to each Execute call.
type Policy[T any] struct {
	initial           T
	operation         Operation[T]
	bailout           Bailout[T]
	backoff           Backoff
	maxAttempts       int
	perAttemptTimeout time.Duration
	errorAsBailout    bool
	bailoutIsSuccess  bool
	classifier        ErrorClassifier
}

// MaxAttempts returns the attempt budget of the policy.
func (p Policy[T]) MaxAttempts() int {
	return p.maxAttempts
}

// PerAttemptTimeout returns the per-attempt timeout, or zero when attempts
// are unbounded.
func (p Policy[T]) PerAttemptTimeout() time.Duration {
	return p.perAttemptTimeout
}

// Builder accumulates a Policy through chained configuration calls and
// validates completeness before producing an immutable Policy for the
// engine. The builder is a single mutable accumulator; each call returns the
// same builder for chaining. Build reports every missing or invalid field in
// one ConfigurationError, so there is no way to hand the engine a policy
// whose required calls were skipped.
//
// Example:
//
//	policy, err := retrypolicy.NewBuilder[int]().
//	    StartWith(0).
//	    WithOperation(op).
//	    WithBailoutWhen(func(v int) bool { return v >= 3 }).
//	    WithBackoff(retrypolicy.ConstantBackoff(time.Second)).
//	    AtMost(5).
//	    Build()
type Builder[T any] struct {
	policy     Policy[T]
	atMostSet  bool
	timeoutSet bool
}

// NewBuilder creates an empty policy builder.
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{}
}

// StartWith sets the initial value. It is the final value of a run whose
// every attempt failed, and the value cancellation reports when no attempt
// ran. The zero value of T is used if unset.
func (b *Builder[T]) StartWith(initial T) *Builder[T] {
	b.policy.initial = initial
	return b
}

// WithOperation sets the operation to retry. Required.
func (b *Builder[T]) WithOperation(op Operation[T]) *Builder[T] {
	b.policy.operation = op
	return b
}

// WithBailoutWhen sets the predicate that stops the run early when further
// attempts are judged pointless. Defaults to Never, meaning the engine only
// stops via exhaustion, a terminal invocation failure, or cancellation. The
// default is deliberate and explicit here: a policy without a predicate
// always consumes its whole budget on persistent bad values.
func (b *Builder[T]) WithBailoutWhen(predicate Bailout[T]) *Builder[T] {
	b.policy.bailout = predicate
	return b
}

// WithBackoff sets the delay strategy between attempts. Defaults to
// NoBackoff, meaning immediate retries; choosing a strategy that will not
// busy-loop against a struggling dependency is the caller's responsibility.
func (b *Builder[T]) WithBackoff(strategy Backoff) *Builder[T] {
	b.policy.backoff = strategy
	return b
}

// AtMost sets the attempt budget, including the first attempt. Required;
// must be at least 1.
func (b *Builder[T]) AtMost(maxAttempts int) *Builder[T] {
	b.policy.maxAttempts = maxAttempts
	b.atMostSet = true
	return b
}

// WithPerAttemptTimeout bounds each invocation of the operation. An attempt
// that exceeds the timeout is recorded as a timeout failure and retried like
// any other failure. Zero means unbounded attempts.
func (b *Builder[T]) WithPerAttemptTimeout(timeout time.Duration) *Builder[T] {
	b.policy.perAttemptTimeout = timeout
	b.timeoutSet = true
	return b
}

// TreatInvocationErrorAsBailout makes any invocation failure stop the run
// with OutcomeOperationFailed instead of consuming further attempts. By
// default failures below the budget are retried and never surfaced
// individually.
func (b *Builder[T]) TreatInvocationErrorAsBailout() *Builder[T] {
	b.policy.errorAsBailout = true
	return b
}

// InterpretBailoutAsSuccess records OutcomeSucceeded instead of
// OutcomeBailedOut when the predicate is satisfied by a successful attempt.
// Use this when the predicate means "the value is good enough" rather than
// "retrying is futile". The engine itself stays outcome-neutral; this only
// changes how the stop reason is labelled.
func (b *Builder[T]) InterpretBailoutAsSuccess() *Builder[T] {
	b.policy.bailoutIsSuccess = true
	return b
}

// WithErrorClassifier sets a custom classifier for invocation failures. A
// non-retryable classification stops the run with OutcomeOperationFailed.
// Defaults to DefaultErrorClassifier.
func (b *Builder[T]) WithErrorClassifier(classifier ErrorClassifier) *Builder[T] {
	b.policy.classifier = classifier
	return b
}

// Build validates the accumulated configuration and returns the immutable
// Policy. Validation is batched: the returned *ConfigurationError names
// every missing or invalid field, not just the first. The builder can keep
// being used after a failed Build once the reported fields are fixed.
func (b *Builder[T]) Build() (Policy[T], error) {
	var fields []string

	if b.policy.operation == nil {
		fields = append(fields, "operation is required")
	}
	if !b.atMostSet {
		fields = append(fields, "maxAttempts is required")
	} else if b.policy.maxAttempts < 1 {
		fields = append(fields, "maxAttempts must be at least 1")
	}
	if b.timeoutSet && b.policy.perAttemptTimeout < 0 {
		fields = append(fields, "perAttemptTimeout must not be negative")
	}

	if len(fields) > 0 {
		return Policy[T]{}, &ConfigurationError{Fields: fields}
	}

	policy := b.policy
	if policy.bailout == nil {
		policy.bailout = Never[T]()
	}
	if policy.backoff == nil {
		policy.backoff = NoBackoff()
	}
	if policy.classifier == nil {
		policy.classifier = DefaultErrorClassifier()
	}

	return policy, nil
}
