// HTTP client for a running contentforge server, used by the CLI and the TUI.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/shared"
)

const defaultAPIBaseURL = "http://localhost:3000"

// APIClient makes authenticated requests to the contentforge HTTP API.
type APIClient struct {
	baseURL    string
	userID     string
	httpClient *http.Client
}

// NewAPIClient creates a client acting as userID. Empty values fall back to localhost and
// [http.DefaultClient].
func NewAPIClient(baseURL, userID string, client *http.Client) *APIClient {
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userID:     userID,
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Err converts a non-2xx response to an error carrying the server's message.
func (r *APIResponse) Err() error {
	if r.OK() {
		return nil
	}

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(r.Body, &body); err == nil && body.Error != "" {
		return fmt.Errorf("%w: %s (%s)", shared.ErrAPIRequest, body.Error, body.Code)
	}
	return fmt.Errorf("%w: %v", shared.ErrAPIRequest,
		&shared.StatusError{StatusCode: r.StatusCode, Body: strings.TrimSpace(string(r.Body))})
}

// Do performs a request with an optional JSON body and returns the raw response.
func (a *APIClient) Do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.userID != "" {
		req.Header.Set("X-User-ID", a.userID)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}
	return apiResp, nil
}

// Get performs a GET request.
func (a *APIClient) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body.
func (a *APIClient) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPost, path, data)
}

// Projects lists the user's projects.
func (a *APIClient) Projects(ctx context.Context) ([]*models.Project, error) {
	var body struct {
		Projects []*models.Project `json:"projects"`
	}
	if err := a.decode(ctx, "/api/projects", &body); err != nil {
		return nil, err
	}
	return body.Projects, nil
}

// Project fetches one project with its outputs.
func (a *APIClient) Project(ctx context.Context, id string) (*models.Project, error) {
	var body struct {
		Project *models.Project `json:"project"`
	}
	if err := a.decode(ctx, "/api/projects/"+id, &body); err != nil {
		return nil, err
	}
	if body.Project == nil {
		return nil, fmt.Errorf("%w: project %s", shared.ErrNotFound, id)
	}
	return body.Project, nil
}

// Regenerate asks the server to generate platform's content again.
func (a *APIClient) Regenerate(ctx context.Context, projectID string, platform models.Platform) (*models.Output, error) {
	return a.sendOutput(ctx, http.MethodPost, "/api/generate",
		map[string]string{"projectId": projectID, "platform": string(platform)})
}

// EditOutput saves content as the output's edited version. nil clears the edit.
func (a *APIClient) EditOutput(ctx context.Context, id string, content *string) (*models.Output, error) {
	return a.sendOutput(ctx, http.MethodPatch, "/api/outputs/"+id,
		map[string]*string{"editedContent": content})
}

func (a *APIClient) sendOutput(ctx context.Context, method, path string, payload any) (*models.Output, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := a.Do(ctx, method, path, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var body struct {
		Output *models.Output `json:"output"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("failed to decode output: %w", err)
	}
	if body.Output == nil {
		return nil, fmt.Errorf("%w: no output in response", shared.ErrAPIRequest)
	}
	return body.Output, nil
}

func (a *APIClient) decode(ctx context.Context, path string, v any) error {
	resp, err := a.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
