package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvariantViolation is returned when upstream event data breaks a contract
	// the handler relies on (unknown line variant, missing recipient, missing data).
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrConfigurationMissing is returned when no configuration exists for a channel.
	ErrConfigurationMissing = errors.New("channel configuration missing")
	// ErrConfigurationInvalid is returned when a channel configuration is incomplete.
	ErrConfigurationInvalid = errors.New("channel configuration invalid")
	// ErrUnsupportedCurrency is returned when a currency code has no known exponent.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	// ErrMissingCountry is returned when the billing address carries no country code.
	ErrMissingCountry = errors.New("missing country code")
)

// HTTPClientError is returned when the payment provider rejects a request.
// StatusText mirrors the provider's HTTP status line; Errors preserves the
// provider's structured error entries verbatim.
type HTTPClientError struct {
	StatusText string
	Errors     []any
}

func (e *HTTPClientError) Error() string {
	return fmt.Sprintf("provider rejected request: %s", e.StatusText)
}

// New creates a new error with the given message.
func New(msg string) error {
	return errors.New(msg)
}

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Invariant returns ErrInvariantViolation annotated with a description of the
// broken expectation. The condition is a programming or upstream-data error,
// never something to retry.
func Invariant(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}

// IsAny reports whether err matches any of the given targets.
func IsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Redact removes credential material from an error message before logging.
// Basic-auth payment APIs echo the Authorization header in some error paths.
func Redact(err error, secrets ...string) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, s := range secrets {
		if s != "" {
			msg = strings.ReplaceAll(msg, s, "[redacted]")
		}
	}
	return msg
}
