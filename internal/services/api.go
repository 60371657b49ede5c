// API client for a running dclone server
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/desertthunder/dclone/internal/models"
	"github.com/desertthunder/dclone/internal/shared"
)

// APIClient calls the HTTP API exposed by `dclone serve`.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// Health is the body of GET /.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// apiError is the body of every non-2xx response.
type apiError struct {
	Error string `json:"error"`
}

// NewAPIClient creates a client for the server at baseURL.
func NewAPIClient(baseURL string, client *http.Client) *APIClient {
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIClient{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// Health checks that the server is up.
func (a *APIClient) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := a.do(ctx, http.MethodGet, "/", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Progress fetches the progress snapshot of taskID.
func (a *APIClient) Progress(ctx context.Context, taskID string) (*models.Progress, error) {
	if taskID == "" {
		return nil, fmt.Errorf("%w: task id is required", shared.ErrMissingArgument)
	}

	var p models.Progress
	if err := a.do(ctx, http.MethodGet, "/api/progress/"+url.PathEscape(taskID), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// do sends body as JSON and decodes a 2xx response into result.
func (a *APIClient) do(ctx context.Context, method, path string, body any, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, data)
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// statusError maps an error response back onto the sentinel errors the server started from.
func statusError(code int, body []byte) error {
	var e apiError
	msg := string(body)
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		msg = e.Error
	}

	var kind error
	switch code {
	case http.StatusUnauthorized:
		kind = shared.ErrNotAuthenticated
	case http.StatusBadRequest:
		kind = shared.ErrInvalidArgument
	case http.StatusNotFound:
		kind = shared.ErrNotFound
	case http.StatusForbidden:
		kind = shared.ErrPermissionDenied
	case http.StatusServiceUnavailable:
		kind = shared.ErrServiceUnavailable
	case http.StatusBadGateway:
		kind = shared.ErrRemotePermanent
	default:
		kind = shared.ErrInternal
	}
	return fmt.Errorf("%w: status %d: %s", kind, code, msg)
}
