package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Lookup errors
	ErrNotFound       = fmt.Errorf("not found")
	ErrTaskNotFound   = fmt.Errorf("task %w", ErrNotFound)
	ErrRemoteNotFound = fmt.Errorf("remote item %w", ErrNotFound)

	// Remote store errors
	ErrPermissionDenied = fmt.Errorf("permission denied")
	ErrRemoteTransient  = fmt.Errorf("remote store temporarily unavailable")
	ErrRemotePermanent  = fmt.Errorf("remote store rejected request")

	// Service errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrInternal           = fmt.Errorf("internal error")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
