package douban

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// TransportError represents a network failure or a non-200 response.
type TransportError struct {
	URL        string
	StatusCode int    // 0 for network-level failures
	Body       string // Response body for status failures
	Err        error  // Underlying network error, if any
}

// Error implements error.
func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("douban: request %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("douban: request %s failed: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a retry may succeed.
// Only network-level failures are considered retryable.
func (e *TransportError) Retryable() bool {
	return e.StatusCode == 0
}

// DecodeError represents a response body that could not be decoded.
type DecodeError struct {
	URL string
	Err error
}

// Error implements error.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("douban: malformed response from %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a retryable transport failure.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable()
	}
	return false
}
