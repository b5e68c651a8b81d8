package retrypolicy

// Bailout decides whether further attempts are pointless given the latest
// successfully produced value. Implementations must be pure: no side effects,
// no invocation of the operation, no engine state. The engine evaluates the
// predicate after every successful attempt, including the final one.
//
// The engine is neutral about what bailing out means: a predicate can encode
// "the value is good enough, stop" just as well as "the value proves retrying
// is futile". Callers interpret the resulting outcome with their own
// convention, or set InterpretBailoutAsSuccess on the builder.
type Bailout[T any] func(value T) bool

// Never returns a predicate that never bails out, so the engine only stops
// via exhaustion, operation failure, or cancellation.
// This is the documented default when a policy sets no predicate.
func Never[T any]() Bailout[T] {
	return func(T) bool {
		return false
	}
}

// AnyOf combines predicates so the engine bails out when any one is satisfied.
func AnyOf[T any](predicates ...Bailout[T]) Bailout[T] {
	return func(value T) bool {
		for _, p := range predicates {
			if p(value) {
				return true
			}
		}
		return false
	}
}

// AllOf combines predicates so the engine bails out only when all are satisfied.
func AllOf[T any](predicates ...Bailout[T]) Bailout[T] {
	return func(value T) bool {
		for _, p := range predicates {
			if !p(value) {
				return false
			}
		}
		return true
	}
}
