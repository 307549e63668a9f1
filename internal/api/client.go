// Package api implements the HTTP client for the LLM Council backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apierrors "github.com/diogo/llmcouncil/internal/errors"
	"github.com/diogo/llmcouncil/internal/models"
)

// DefaultBaseURL is the local development backend
const DefaultBaseURL = "http://localhost:8001"

// defaultTimeout covers blocking council runs, which can take minutes
const defaultTimeout = 300 * time.Second

// CouncilClient talks to the LLM Council REST API and opens response
// streams. Safe for concurrent use; it holds no per-conversation state.
type CouncilClient struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption is a function that configures the client
type ClientOption func(*CouncilClient)

// WithBaseURL sets the backend base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *CouncilClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout sets the per-request timeout for non-streaming calls
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *CouncilClient) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *CouncilClient) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new CouncilClient
func NewClient(opts ...ClientOption) *CouncilClient {
	client := &CouncilClient{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the configured backend base URL
func (c *CouncilClient) BaseURL() string {
	return c.baseURL
}

// healthResponse is the GET / body
type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Health checks that the backend is reachable and reports itself ok
func (c *CouncilClient) Health(ctx context.Context) error {
	var health healthResponse
	if err := c.getJSON(ctx, "/", &health); err != nil {
		return fmt.Errorf("%w: %v", apierrors.ErrServerUnavailable, err)
	}
	if health.Status != "ok" {
		return fmt.Errorf("%w: status %q", apierrors.ErrServerUnavailable, health.Status)
	}
	return nil
}

// getJSON performs a GET and decodes the JSON body into out
func (c *CouncilClient) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

// doJSON performs a request with an optional JSON body and decodes the
// JSON response into out (which may be nil).
func (c *CouncilClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.apiError(resp, path)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apierrors.NewParseError(fmt.Sprintf("decoding %s response: %v", path, err), "")
	}
	return nil
}

// errorBody is the backend's error envelope
type errorBody struct {
	Detail string `json:"detail"`
}

// apiError converts a non-success response into an APIError
func (c *CouncilClient) apiError(resp *http.Response, path string) error {
	message := resp.Status
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(data) > 0 {
		var body errorBody
		if json.Unmarshal(data, &body) == nil && body.Detail != "" {
			message = body.Detail
		}
	}
	return apierrors.NewAPIError(resp.StatusCode, path, message)
}

// ListRooms returns the council rooms the backend offers
func (c *CouncilClient) ListRooms(ctx context.Context) (*models.RoomList, error) {
	var rooms models.RoomList
	if err := c.getJSON(ctx, "/api/rooms", &rooms); err != nil {
		return nil, err
	}
	return &rooms, nil
}

// ListModels returns the chat models the backend offers
func (c *CouncilClient) ListModels(ctx context.Context) (*models.ModelList, error) {
	var list models.ModelList
	if err := c.getJSON(ctx, "/api/models", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// detectRoomRequest is the /api/rooms/detect body
type detectRoomRequest struct {
	Prompt string `json:"prompt"`
}

// DetectRoom asks the backend to classify a prompt into a room
func (c *CouncilClient) DetectRoom(ctx context.Context, prompt string) (*models.RoomDetection, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("prompt cannot be empty")
	}

	var detection models.RoomDetection
	err := c.doJSON(ctx, http.MethodPost, "/api/rooms/detect", detectRoomRequest{Prompt: prompt}, &detection)
	if err != nil {
		return nil, err
	}
	return &detection, nil
}
