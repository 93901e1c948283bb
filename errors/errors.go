// Package errors provides standardized error handling patterns for ringkit components.
// It includes error classification, standard error variables, and helper functions
// for consistent error wrapping and classification across the module.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/c360/ringkit/pkg/retry"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or configuration
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that should stop processing
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables shared by the buffer, the line sources and ringtail.
var (
	// Lifecycle
	ErrAlreadyStarted = errors.New("component already started")
	ErrAlreadyStopped = errors.New("component already stopped")

	// Network line sources
	ErrNoConnection       = errors.New("no connection available")
	ErrConnectionLost     = errors.New("connection lost")
	ErrConnectionTimeout  = errors.New("connection timeout")
	ErrSubscriptionFailed = errors.New("subscription failed")

	// Input that cannot be accepted as a line or a config value
	ErrInvalidData   = errors.New("invalid data format")
	ErrParsingFailed = errors.New("parsing failed")

	// Configuration
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrMissingConfig  = errors.New("missing required configuration")
	ErrConfigNotFound = errors.New("configuration not found")

	// Retry gave up with the last failure still transient
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

// Sentinels and message fragments that classify an error which carries no
// ClassifiedError in its chain.
var (
	transientSentinels = []error{
		ErrConnectionTimeout,
		ErrConnectionLost,
		ErrNoConnection,
		ErrMaxRetriesExceeded,
		context.DeadlineExceeded,
		context.Canceled,
	}
	transientPatterns = []string{"timeout", "connection", "network", "temporary", "unavailable"}

	fatalSentinels = []error{ErrInvalidConfig, ErrMissingConfig}
	fatalPatterns  = []string{"fatal", "panic", "invalid config", "missing config", "out of memory"}

	invalidSentinels = []error{ErrInvalidData, ErrParsingFailed}
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// classOf reports the class of the outermost ClassifiedError in err's chain.
func classOf(err error) (ErrorClass, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class, true
	}
	return 0, false
}

func matches(err error, sentinels []error, patterns []string) bool {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return true
		}
	}
	if len(patterns) == 0 {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsTransient checks if an error is transient and should be retried
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if class, ok := classOf(err); ok {
		return class == ErrorTransient
	}
	return matches(err, transientSentinels, transientPatterns)
}

// IsFatal checks if an error is fatal and should stop processing
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if class, ok := classOf(err); ok {
		return class == ErrorFatal
	}
	return matches(err, fatalSentinels, fatalPatterns)
}

// IsInvalid checks if an error is due to invalid input
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}
	if class, ok := classOf(err); ok {
		return class == ErrorInvalid
	}
	return matches(err, invalidSentinels, nil)
}

// Classify returns the error class for an error. Errors that match no rule
// are transient so callers may retry them.
func Classify(err error) ErrorClass {
	switch {
	case err == nil, IsTransient(err):
		return ErrorTransient
	case IsFatal(err):
		return ErrorFatal
	case IsInvalid(err):
		return ErrorInvalid
	default:
		return ErrorTransient
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

func wrapAs(class ErrorClass, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return &ClassifiedError{
		Class:     class,
		Err:       wrapped,
		Message:   wrapped.Error(),
		Component: component,
		Operation: method,
	}
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	return wrapAs(ErrorTransient, err, component, method, action)
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	return wrapAs(ErrorFatal, err, component, method, action)
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	return wrapAs(ErrorInvalid, err, component, method, action)
}

// Retry calls fn under the backoff in cfg until it succeeds or fails with an
// error that Classify does not report as transient. Such an error is returned
// as is, without further attempts. When every attempt fails transiently the
// last error is returned wrapped in ErrMaxRetriesExceeded. Cancelling ctx
// stops the loop with an error wrapping ctx.Err().
func Retry[T any](ctx context.Context, cfg retry.Config, fn func() (T, error)) (T, error) {
	var (
		last     error
		attempts int
	)
	result, err := retry.DoWithResult(ctx, cfg, func() (T, error) {
		attempts++
		v, err := fn()
		if err == nil {
			return v, nil
		}
		last = err
		if Classify(err) != ErrorTransient {
			return v, retry.NonRetryable(err)
		}
		return v, err
	})

	switch {
	case err == nil:
		return result, nil
	case retry.IsNonRetryable(err):
		return result, last
	case last == nil, ctx.Err() != nil:
		return result, err
	default:
		return result, fmt.Errorf("%w after %d attempts: %w", ErrMaxRetriesExceeded, attempts, last)
	}
}
