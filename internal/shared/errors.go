package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig        = fmt.Errorf("configuration not found")
	ErrInvalidConfig        = fmt.Errorf("invalid configuration")
	ErrBackendNotConfigured = fmt.Errorf("backend URL is not configured")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrUnexpectedShape    = fmt.Errorf("unexpected response shape")
	ErrMovieNotFound      = fmt.Errorf("movie not found")
	ErrToggleInFlight     = fmt.Errorf("toggle already in flight")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")

	// Storage errors
	ErrNotFound = fmt.Errorf("record not found")
)
