package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Action string

const (
	ActionStatus     Action = "status"
	ActionTranscript Action = "transcript"
	ActionScenes     Action = "scenes"
	ActionComparison Action = "comparison"
	ActionSearch     Action = "search"
)

// ParseAction maps the proxy's action parameter onto an endpoint. Anything
// unknown, including the empty string, falls back to the status endpoint.
func ParseAction(s string) Action {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionTranscript, ActionScenes, ActionComparison, ActionSearch:
		return a
	default:
		return ActionStatus
	}
}

type Query struct {
	SessionID string
	Action    Action
	Timestamp string
	Search    string
}

type Response struct {
	StatusCode int
	Body       []byte
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
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

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) AnalyzeURL() string {
	return c.baseURL + "/api/analyze"
}

// QueryURL builds the backend endpoint for a read request. The session id is
// path-escaped but otherwise used exactly as given.
func (c *Client) QueryURL(q Query) string {
	id := url.PathEscape(q.SessionID)
	params := url.Values{}

	var path string
	switch q.Action {
	case ActionTranscript:
		path = "/api/transcript/" + id
		if q.Timestamp != "" {
			params.Set("timestamp", q.Timestamp)
		}
	case ActionScenes:
		path = "/api/scenes/" + id
		if q.Timestamp != "" {
			params.Set("timestamp", q.Timestamp)
		}
	case ActionComparison:
		path = "/api/comparison/" + id
	case ActionSearch:
		path = "/api/search/" + id + "?query=" + escapeComponent(q.Search)
	default:
		path = "/api/status/" + id
	}

	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}
	return fullURL
}

// escapeComponent encodes s the way browsers encode a URI component, with
// spaces as %20 rather than +.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (c *Client) Analyze(ctx context.Context, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.AnalyzeURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) Query(ctx context.Context, q Query) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.QueryURL(q), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	return c.do(req)
}

// Ping reports whether the backend answers HTTP at all.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) do(req *http.Request) (*Response, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("backend returned non-JSON body (status %d)", resp.StatusCode)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
