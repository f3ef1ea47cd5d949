package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Request errors. The server maps these to 400, 401, 404, 409 and 500.
	ErrValidation      = fmt.Errorf("invalid input")
	ErrUnauthenticated = fmt.Errorf("not authenticated")
	ErrNotFound        = fmt.Errorf("not found")
	ErrConflict        = fmt.Errorf("conflict")
	ErrStoreFailure    = fmt.Errorf("store failure")

	// Remote catalog errors. ErrSoftUnavailable triggers the local fallback and is never returned to callers.
	ErrSoftUnavailable = fmt.Errorf("remote provider unavailable")
	ErrAPIRequest      = fmt.Errorf("API request failed")

	// CLI argument errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
