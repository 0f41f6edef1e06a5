package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// Service and resolution errors
	ErrAPIRequest           = fmt.Errorf("API request failed")
	ErrServiceUnavailable   = fmt.Errorf("service unavailable")
	ErrServiceNotRegistered = fmt.Errorf("service not registered")
	ErrTrackNotFound        = fmt.Errorf("track not found")
	ErrNoCandidates         = fmt.Errorf("no candidates found")

	// Queue errors
	ErrItemNotFound       = fmt.Errorf("queue item not found")
	ErrQueueShutdown      = fmt.Errorf("queue is shut down")
	ErrDownloadFailed     = fmt.Errorf("download failed")
	ErrDownloadCancelled  = fmt.Errorf("download cancelled")
	ErrOutputPathConflict = fmt.Errorf("output path already exists")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
