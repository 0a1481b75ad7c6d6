package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kdimtricp/vidagent/internal/backend"
	"github.com/kdimtricp/vidagent/internal/models"
)

const analysisPath = "/api/video-analysis"

// StatusError is a non-2xx answer from the proxy. Message is the "error"
// field of the body when there is one.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("proxy returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("proxy returned status %d", e.StatusCode)
}

type Params struct {
	SessionID string
	Action    backend.Action
	Timestamp *float64
	Query     string
}

func (p Params) values() url.Values {
	v := url.Values{}
	v.Set("sessionId", p.SessionID)
	if p.Action != "" {
		v.Set("action", string(p.Action))
	}
	if p.Timestamp != nil {
		v.Set("timestamp", strconv.FormatFloat(*p.Timestamp, 'f', -1, 64))
	}
	if p.Query != "" {
		v.Set("query", p.Query)
	}
	return v
}

// Client talks to the proxy route, never to the backend directly.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Start(ctx context.Context, startReq models.StartRequest) (*models.StartResponse, error) {
	jsonData, err := json.Marshal(startReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+analysisPath, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var startResp models.StartResponse
	if err := json.Unmarshal(body, &startResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &startResp, nil
}

func (c *Client) Status(ctx context.Context, sessionID string) (*models.StatusResponse, error) {
	body, err := c.Fetch(ctx, Params{SessionID: sessionID, Action: backend.ActionStatus})
	if err != nil {
		return nil, err
	}

	var statusResp models.StatusResponse
	if err := json.Unmarshal(body, &statusResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}
	return &statusResp, nil
}

// Fetch issues one read request and returns the body untouched.
func (c *Client) Fetch(ctx context.Context, p Params) (json.RawMessage, error) {
	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, analysisPath, p.values().Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &errBody)
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("proxy returned invalid JSON")
	}
	return json.RawMessage(body), nil
}
