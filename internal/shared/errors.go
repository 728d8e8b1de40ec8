package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Backend request errors
	ErrNetwork            = fmt.Errorf("network request failed")
	ErrBackendStatus      = fmt.Errorf("backend returned an error status")
	ErrMalformedResponse  = fmt.Errorf("malformed backend response")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Controller errors
	ErrQuerySuperseded    = fmt.Errorf("query superseded by a newer submission")
	ErrDownloadInProgress = fmt.Errorf("download already in progress")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// BackendError describes a non-2xx response from the recommendation backend.
//
// Detail holds the FastAPI "detail" message when the body carried one.
type BackendError struct {
	Endpoint   string
	StatusCode int
	Detail     string
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s returned %d: %s", ErrBackendStatus, e.Endpoint, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: %s returned %d", ErrBackendStatus, e.Endpoint, e.StatusCode)
}

func (e *BackendError) Unwrap() error {
	return ErrBackendStatus
}

// IsRequestFailure reports whether err came from the network, a backend status, or an unreadable body.
func IsRequestFailure(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrBackendStatus) || errors.Is(err, ErrMalformedResponse)
}
