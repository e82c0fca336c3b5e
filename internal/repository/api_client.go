package repository

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

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
	appErrors "github.com/noah-isme/subsidy-console-gateway/pkg/errors"
)

const maxErrorBody = 4 << 10

type upstreamObserver interface {
	ObserveUpstreamRequest(method, endpoint string, status int, duration time.Duration)
}

// APIClient issues JSON requests against the enterprise API on behalf of a single caller.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
	metrics    upstreamObserver
}

// NewAPIClient constructs a client rooted at baseURL.
func NewAPIClient(baseURL string, httpClient *http.Client, metrics upstreamObserver) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		metrics:    metrics,
	}
}

// WithToken returns a copy that authenticates as the given bearer token.
func (c *APIClient) WithToken(token string) *APIClient {
	clone := *c
	clone.token = token
	return &clone
}

// Get fetches path with query parameters and decodes the JSON body into dest.
func (c *APIClient) Get(ctx context.Context, path string, query url.Values, dest interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, dest)
}

// Post sends body as JSON and decodes the response into dest when non-nil.
func (c *APIClient) Post(ctx context.Context, path string, body, dest interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, dest)
}

// Patch sends a partial update.
func (c *APIClient) Patch(ctx context.Context, path string, body, dest interface{}) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, dest)
}

func (c *APIClient) do(ctx context.Context, method, path string, query url.Values, body, dest interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, path, http.StatusServiceUnavailable, time.Since(start))
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("%s %s failed", method, path))
	}
	defer resp.Body.Close()
	c.observe(method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return upstreamError(method, path, resp)
	}

	if dest == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("decode %s %s response", method, path))
	}
	return nil
}

func (c *APIClient) observe(method, path string, status int, duration time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveUpstreamRequest(method, endpointLabel(path), status, duration)
}

func upstreamError(method, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(string(raw))
	var payload dto.APIErrorPayload
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != "" {
		detail = payload.Detail
	}
	cause := fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, detail)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return appErrors.Wrap(cause, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "resource not found")
	case http.StatusUnauthorized:
		return appErrors.Wrap(cause, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "enterprise api rejected credentials")
	case http.StatusForbidden:
		return appErrors.Wrap(cause, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "enterprise api denied access")
	case http.StatusBadRequest:
		return appErrors.Wrap(cause, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "enterprise api rejected the request")
	default:
		return appErrors.Wrap(cause, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
}

// endpointLabel collapses identifiers out of a path to keep metric cardinality bounded.
func endpointLabel(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, segment := range segments {
		if looksLikeIdentifier(segment) {
			segments[i] = ":id"
		}
	}
	return "/" + strings.Join(segments, "/")
}

func looksLikeIdentifier(segment string) bool {
	if segment == "" {
		return false
	}
	digits := 0
	for _, r := range segment {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits > 0 && (len(segment) >= 32 || digits == len(segment))
}
