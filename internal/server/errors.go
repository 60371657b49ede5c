package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/desertthunder/dclone/internal/shared"
)

// StatusCode maps an error onto the HTTP status the API reports for it.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrAuthFailed):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrServiceUnavailable), errors.Is(err, shared.ErrRemoteTransient), errors.Is(err, shared.ErrMissingCredentials):
		return http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrRemotePermanent):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// respondError writes err with its mapped status. Internal errors are not echoed to clients.
func respondError(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	msg := err.Error()
	switch {
	case errors.Is(err, shared.ErrTaskNotFound):
		msg = "Task not found"
	case status == http.StatusInternalServerError:
		msg = "internal error"
	}
	writeError(w, status, msg)
}
