package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/desertthunder/dclone/internal/shared"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

func TestClassify(t *testing.T) {
	tc := []struct {
		name      string
		err       error
		want      error
		transient bool
		label     string
	}{
		{
			name:  "not found",
			err:   &googleapi.Error{Code: http.StatusNotFound},
			want:  shared.ErrNotFound,
			label: "not_found",
		},
		{
			name:  "unauthorized",
			err:   &googleapi.Error{Code: http.StatusUnauthorized},
			want:  shared.ErrPermissionDenied,
			label: "permission_denied",
		},
		{
			name:      "forbidden rate limit",
			err:       &googleapi.Error{Code: http.StatusForbidden, Errors: []googleapi.ErrorItem{{Reason: "rateLimitExceeded"}}},
			want:      shared.ErrRemoteTransient,
			transient: true,
			label:     "transient",
		},
		{
			name:      "too many requests",
			err:       &googleapi.Error{Code: http.StatusTooManyRequests},
			want:      shared.ErrRemoteTransient,
			transient: true,
			label:     "transient",
		},
		{
			name:      "bad gateway",
			err:       &googleapi.Error{Code: http.StatusBadGateway},
			want:      shared.ErrRemoteTransient,
			transient: true,
			label:     "transient",
		},
		{
			name:  "bad request",
			err:   &googleapi.Error{Code: http.StatusBadRequest},
			want:  shared.ErrRemotePermanent,
			label: "permanent",
		},
		{
			name:  "token refresh rejected",
			err:   &oauth2.RetrieveError{},
			want:  shared.ErrNotAuthenticated,
			label: "unauthenticated",
		},
		{
			name:      "deadline",
			err:       context.DeadlineExceeded,
			want:      shared.ErrRemoteTransient,
			transient: true,
			label:     "transient",
		},
		{
			name:  "canceled",
			err:   context.Canceled,
			want:  shared.ErrRemotePermanent,
			label: "permanent",
		},
		{
			name:      "connection reset",
			err:       errors.New("connection reset by peer"),
			want:      shared.ErrRemoteTransient,
			transient: true,
			label:     "transient",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("get", "id1", tt.err)

			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, tt.err) {
				t.Error("expected the cause to stay in the chain")
			}
			if IsTransient(err) != tt.transient {
				t.Errorf("IsTransient = %v, want %v", IsTransient(err), tt.transient)
			}
			if got := KindLabel(err); got != tt.label {
				t.Errorf("KindLabel = %s, want %s", got, tt.label)
			}
		})
	}

	t.Run("nil stays nil", func(t *testing.T) {
		if classify("get", "x", nil) != nil {
			t.Error("expected nil")
		}
		if KindLabel(nil) != "ok" {
			t.Error("expected ok label for nil")
		}
	})

	t.Run("message names op and id", func(t *testing.T) {
		err := classify("copy", "abc", errors.New("boom"))
		if err.Error() != "copy abc: boom" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})
}
