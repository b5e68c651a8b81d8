package retrypolicy

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/JohnPlummer/jp-go-errors"
)

// ConfigurationError reports an invalid policy at Build time. Every missing
// or invalid field is collected and reported together rather than failing on
// the first omission, so a caller can fix the whole policy in one pass.
// It is never produced at execution time.
type ConfigurationError struct {
	// Fields lists the names of the missing or invalid fields, in the order
	// they were validated.
	Fields []string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return "invalid retry policy: " + strings.Join(e.Fields, "; ")
}

// IsConfigurationError reports whether err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// ErrorClassifier determines whether an invocation failure is worth further
// attempts. Implement this interface to stop retrying on errors your
// operation cannot recover from, instead of burning the remaining budget.
type ErrorClassifier interface {
	// IsRetryable returns true if the error represents a transient failure
	// that should be retried.
	IsRetryable(err error) bool
}

// ErrorClassifierFunc adapts a function to the ErrorClassifier interface.
type ErrorClassifierFunc func(err error) bool

// IsRetryable implements ErrorClassifier.
func (f ErrorClassifierFunc) IsRetryable(err error) bool {
	return f(err)
}

// transientClassifier treats everything as retryable except context errors.
type transientClassifier struct{}

// IsRetryable implements ErrorClassifier.
func (transientClassifier) IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are NOT retryable - if the parent context is exceeded or
	// canceled, retrying with the same context will fail immediately.
	// Check these FIRST, as context.DeadlineExceeded may be considered a
	// timeout by other error checkers.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	// Check for jp-go-errors sentinel errors
	if errors.Is(err, pkgerrors.ErrRateLimited) {
		return true
	}
	if pkgerrors.IsTimeout(err) {
		return true
	}

	// Unknown errors might be retryable (network issues, etc.)
	return true
}

// DefaultErrorClassifier provides reasonable defaults for most use cases.
// It treats rate limits, timeouts (including per-attempt timeouts recorded by
// the engine), and unknown errors as retryable, and context cancellation as
// terminal.
func DefaultErrorClassifier() ErrorClassifier {
	return transientClassifier{}
}
