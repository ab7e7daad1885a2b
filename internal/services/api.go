// Raw HTTP transport shared by the backend client and the proxy client.
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/flickx/internal/shared"
	"github.com/goccy/go-json"
)

// DefaultBaseURL is where the proxy listens unless configured otherwise.
const DefaultBaseURL = "http://127.0.0.1:3000"

// APIService makes raw JSON requests against one origin.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates an [APIService] for baseURL (trailing slashes trimmed).
//
// An empty baseURL falls back to [DefaultBaseURL] and a nil client to [http.DefaultClient].
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// BaseURL returns the origin requests are sent to.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// Request describes one call made through [APIService.Do].
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
	Header http.Header
	// Endpoint labels the call in logs and metrics; defaults to Path.
	Endpoint string
}

func (r Request) label() string {
	if r.Endpoint != "" {
		return r.Endpoint
	}
	return r.Path
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
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ErrorMessage returns the body's "error" field when it is a non-empty string.
func (r *APIResponse) ErrorMessage() string {
	if obj, ok := r.JSONData.(map[string]any); ok {
		if msg, ok := obj["error"].(string); ok {
			return msg
		}
	}
	return ""
}

// Decode unmarshals the body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUnexpectedShape, err)
	}
	return nil
}

// SetCookies returns every Set-Cookie header value in order.
func (r *APIResponse) SetCookies() []string {
	return r.Headers.Values("Set-Cookie")
}

// Do sends req and reads the whole response.
//
// Any status is a successful round trip; only transport and read failures return an error.
func (a *APIService) Do(ctx context.Context, req Request) (*APIResponse, error) {
	fullURL := a.baseURL + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrAPIRequest, err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
