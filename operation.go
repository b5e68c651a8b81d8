// Package retrypolicy provides a generic retry execution engine driven by
// immutable policies. A policy bundles the operation to invoke, a bailout
// predicate over the operation's result, a backoff strategy, and an attempt
// budget; the engine drives the attempt loop and reports a structured result
// with the full attempt history. It supports any result type using Go
// generics and integrates with jp-go-errors for standardized error handling.
package retrypolicy

import (
	"context"
)

// Operation is the unit of work a policy retries. The engine invokes it once
// per attempt until the bailout predicate is satisfied, the attempt budget is
// exhausted, or the context is cancelled. Type parameter T can be any type,
// making this suitable for HTTP calls, database queries, or any other
// operation that needs retry semantics.
//
// The context carries the per-attempt timeout when the policy configures one;
// operations that block should honor it. The engine never inspects the
// operation beyond its return values.
//
// Example:
//
//	op := func(ctx context.Context) (*http.Response, error) {
//	    return client.Do(req.WithContext(ctx))
//	}
type Operation[T any] func(ctx context.Context) (T, error)
