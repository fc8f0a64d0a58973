package api

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks requests that never got an HTTP response.
var ErrUnavailable = errors.New("server unavailable")

// HTTPError represents a non-2xx HTTP response from the backend.
// RequestID is the X-Request-ID the failed request was sent with.
type HTTPError struct {
	StatusCode int
	Detail     string
	RequestID  string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Detail)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// DetailOf returns the server-supplied detail of an HTTPError in err's chain.
func DetailOf(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Detail
	}
	return ""
}
