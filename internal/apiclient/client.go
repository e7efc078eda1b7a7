package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"airline-ops/airops/internal/logging"
	"airline-ops/airops/internal/metrics"
)

// Client issues JSON requests against the airline REST API
type Client struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration

	metrics *metrics.MetricsRegistry
}

// NewClient creates a new airline API client. A zero timeout disables the
// per-request deadline; callers should always pass the configured value.
func NewClient(baseURL string, timeout time.Duration, m *metrics.MetricsRegistry) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: timeout,
		},
		Timeout: timeout,
		metrics: m,
	}
}

// Do performs a request and returns the raw JSON body. Non-JSON success
// bodies (e.g. an empty 204) are returned as an empty object.
func (c *Client) Do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body for %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, &NetworkError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.Client.Do(req)
	if err != nil {
		c.observe(method, path, "network_error", start)
		logging.Warn("Airline API request failed",
			"method", method,
			"path", path,
			"error", err.Error(),
		)
		return nil, &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		c.observe(method, path, "network_error", start)
		return nil, &NetworkError{Method: method, Path: path, Err: readErr}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.observe(method, path, strconv.Itoa(resp.StatusCode), start)
		apiErr := buildAPIError(method, path, resp.StatusCode, bodyBytes)
		logging.Warn("Airline API returned an error",
			"method", method,
			"path", path,
			"status_code", resp.StatusCode,
			"message", apiErr.Message,
		)
		return nil, apiErr
	}

	c.observe(method, path, strconv.Itoa(resp.StatusCode), start)

	trimmed := bytes.TrimSpace(bodyBytes)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return json.RawMessage("{}"), nil
	}
	return json.RawMessage(trimmed), nil
}

// List fetches a collection. A body that is not a JSON array yields an empty list.
func (c *Client) List(ctx context.Context, path string) ([]map[string]any, error) {
	raw, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var items []any
	if err := decodeNumbers(raw, &items); err != nil {
		return []map[string]any{}, nil
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out, nil
}

// Get fetches a single object.
func (c *Client) Get(ctx context.Context, path string) (map[string]any, error) {
	raw, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeObject(raw), nil
}

// Create POSTs payload to a collection path.
func (c *Client) Create(ctx context.Context, path string, payload any) (map[string]any, error) {
	raw, err := c.Do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	return decodeObject(raw), nil
}

// Update PUTs payload to an item path.
func (c *Client) Update(ctx context.Context, path string, payload any) (map[string]any, error) {
	raw, err := c.Do(ctx, http.MethodPut, path, payload)
	if err != nil {
		return nil, err
	}
	return decodeObject(raw), nil
}

// Delete removes the item at path. Empty and JSON bodies are both accepted.
func (c *Client) Delete(ctx context.Context, path string) (map[string]any, error) {
	raw, err := c.Do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeObject(raw), nil
}

// Ping checks that the API answers at all. Any HTTP response, including an
// error status, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Do(ctx, http.MethodGet, "/", nil)
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return err
	}
	return nil
}

// ResponseMessage extracts the optional "message" string of a mutation response.
func ResponseMessage(obj map[string]any) string {
	if obj == nil {
		return ""
	}
	if msg, ok := obj["message"].(string); ok {
		return strings.TrimSpace(msg)
	}
	return ""
}

// ItemPath joins a collection path and an id.
func ItemPath(collection string, id int64) string {
	return collection + "/" + url.PathEscape(strconv.FormatInt(id, 10))
}

func decodeObject(raw json.RawMessage) map[string]any {
	var obj map[string]any
	if err := decodeNumbers(raw, &obj); err != nil || obj == nil {
		return map[string]any{}
	}
	return obj
}

// decodeNumbers keeps numbers as json.Number so integer ids survive intact.
func decodeNumbers(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// buildAPIError derives a readable message: JSON "message", then JSON
// "error" (the airline backend's convention), then raw text, then a fallback.
func buildAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, Status: status}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, key := range []string{"message", "error"} {
			if msg, ok := parsed[key].(string); ok && strings.TrimSpace(msg) != "" {
				apiErr.Message = strings.TrimSpace(msg)
				return apiErr
			}
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		apiErr.Message = text
		return apiErr
	}

	apiErr.Message = UnknownResponseMessage
	return apiErr
}

func (c *Client) observe(method, path, outcome string, start time.Time) {
	if c.metrics == nil {
		return
	}
	resource := resourceLabel(path)
	c.metrics.UpstreamRequestsTotal.WithLabelValues(method, resource, outcome).Inc()
	c.metrics.UpstreamRequestDuration.WithLabelValues(method, resource).Observe(time.Since(start).Seconds())
}

// resourceLabel keeps metric cardinality bounded: "/pilots/12" -> "pilots".
func resourceLabel(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexAny(trimmed, "/?"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}
