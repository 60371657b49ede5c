package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/desertthunder/dclone/internal/shared"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// RemoteError wraps a failed remote store call with its classification.
//
// Kind is one of [shared.ErrRemoteNotFound], [shared.ErrPermissionDenied], [shared.ErrNotAuthenticated],
// [shared.ErrRemoteTransient], or [shared.ErrRemotePermanent], so callers can match with [errors.Is].
type RemoteError struct {
	Op   string
	ID   string
	Kind error
	Err  error
}

func (e *RemoteError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *RemoteError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Transient reports whether the same call could succeed later.
func (e *RemoteError) Transient() bool {
	return errors.Is(e.Kind, shared.ErrRemoteTransient)
}

// IsTransient reports whether err is a transient remote failure.
func IsTransient(err error) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Transient()
	}
	return false
}

// KindLabel returns a short label for metrics.
func KindLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, shared.ErrNotAuthenticated):
		return "unauthenticated"
	case errors.Is(err, shared.ErrRemoteTransient):
		return "transient"
	default:
		return "permanent"
	}
}

var rateLimitReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// classify wraps err from a Drive call into a [*RemoteError].
func classify(op, id string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Op: op, ID: id, Kind: kindOf(err), Err: err}
}

func kindOf(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return kindOfStatus(apiErr)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return shared.ErrNotAuthenticated
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return shared.ErrRemoteTransient
	}

	if errors.Is(err, context.Canceled) {
		return shared.ErrRemotePermanent
	}

	// no response was received
	return shared.ErrRemoteTransient
}

func kindOfStatus(apiErr *googleapi.Error) error {
	switch {
	case apiErr.Code == http.StatusNotFound:
		return shared.ErrRemoteNotFound
	case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500:
		return shared.ErrRemoteTransient
	case apiErr.Code == http.StatusForbidden || apiErr.Code == http.StatusUnauthorized:
		for _, item := range apiErr.Errors {
			if rateLimitReasons[item.Reason] {
				return shared.ErrRemoteTransient
			}
		}
		return shared.ErrPermissionDenied
	default:
		return shared.ErrRemotePermanent
	}
}
