package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrStale is returned when a response arrives after a newer request was issued.
var ErrStale = errors.New("stale response")

// APIError is a failure envelope returned by the proxy.
type APIError struct {
	Status  int
	Message string
	Errors  []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// NotFound reports whether the proxy answered 404.
func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// retryable reports whether the status is a transient gateway failure.
func (e *APIError) retryable() bool {
	switch e.Status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.NotFound()
}
