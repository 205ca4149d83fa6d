package engine

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

const (
	pathPing       = "/clientapi/ping"
	pathUser       = "/clientapi/user"
	pathAuthorized = "/clientapi/permissions/authorized"
	pathWhitelist  = "/clientapi/permissions/whitelist"
	pathLogin      = "/api/account/login-desktop"

	userAgent    = "kiteready/0.1.0"
	maxBodyBytes = 64 * 1024
)

// apiClient talks to the engine's local HTTP API.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string, timeout time.Duration) *apiClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

type response struct {
	status int
	body   []byte
}

func (c *apiClient) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (response, error) {
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return response{}, fmt.Errorf("read response: %w", err)
	}
	return response{status: resp.StatusCode, body: data}, nil
}

func (c *apiClient) get(ctx context.Context, path string, query url.Values) (response, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, "")
}

func (c *apiClient) postForm(ctx context.Context, path string, form url.Values) (response, error) {
	return c.do(ctx, http.MethodPost, path, nil, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func (c *apiClient) putJSON(ctx context.Context, path string, payload any) (response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return response{}, fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPut, path, nil, bytes.NewReader(data), "application/json")
}

// message extracts a human readable reason from an error response.
func (r response) message() string {
	var decoded struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(r.body, &decoded); err == nil {
		if decoded.Message != "" {
			return decoded.Message
		}
		if decoded.Error != "" {
			return decoded.Error
		}
	}
	text := strings.TrimSpace(string(r.body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	if text == "" {
		text = http.StatusText(r.status)
	}
	return text
}
