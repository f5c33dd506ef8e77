package client

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

	"github.com/routelab/hoptrace/internal/model"
)

// HTTPClient implements PerfClient using the hoptrace HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Perf buffer ---

func (c *HTTPClient) ViewPerf(ctx context.Context, module string) (*model.PerfDatabase, error) {
	var db model.PerfDatabase
	if err := c.doJSON(ctx, http.MethodGet, "/v1/perf/"+url.PathEscape(module), nil, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

func (c *HTTPClient) ReportChain(ctx context.Context, module string, chain model.PerfEventChain) (*ReportResult, error) {
	var result ReportResult
	path := "/v1/perf/" + url.PathEscape(module) + "/chains"
	if err := c.doJSON(ctx, http.MethodPost, path, chain, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) ClearPerf(ctx context.Context, module string) (int, error) {
	var resp struct {
		Cleared int `json:"cleared"`
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/v1/perf/"+url.PathEscape(module), nil, &resp); err != nil {
		return 0, err
	}
	return resp.Cleared, nil
}

func (c *HTTPClient) ListModules(ctx context.Context) ([]model.ModuleInfo, error) {
	var resp struct {
		Modules []model.ModuleInfo `json:"modules"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/modules", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Modules, nil
}

func (c *HTTPClient) ListNodes(ctx context.Context) ([]model.NodeInfo, error) {
	var resp struct {
		Nodes []model.NodeInfo `json:"nodes"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/nodes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}

// --- Archive ---

func (c *HTTPClient) ListTraces(ctx context.Context, req *ListTracesRequest) (*ListTracesResponse, error) {
	q := url.Values{}
	if req.Module != "" {
		q.Set("module", req.Module)
	}
	if req.Node != "" {
		q.Set("node", req.Node)
	}
	if req.Since != nil {
		q.Set("since", req.Since.UTC().Format(time.RFC3339))
	}
	if req.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", fmt.Sprintf("%d", req.Offset))
	}

	path := "/v1/traces"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListTracesResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetTrace(ctx context.Context, id string) (*model.TraceRecord, error) {
	var rec model.TraceRecord
	if err := c.doJSON(ctx, http.MethodGet, "/v1/traces/"+url.PathEscape(id), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *HTTPClient) PruneTraces(ctx context.Context, before time.Time) (int64, error) {
	var resp struct {
		Deleted int64 `json:"deleted"`
	}
	path := "/v1/traces?before=" + url.QueryEscape(before.UTC().Format(time.RFC3339))
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}

// --- Collector state ---

func (c *HTTPClient) Stats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	if err := c.doJSON(ctx, http.MethodGet, "/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content: success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
