package client

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrMissingBaseURL is returned by NewClient when no base URL is configured.
var ErrMissingBaseURL = errors.New("base URL is required")

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	// Detail is the service's explanation, taken from the response body's
	// detail field when present, otherwise the raw body.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("service returned status %d: %s", e.StatusCode, e.Detail)
}
