package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// httpClient handles HTTP communication with the gateway.
type httpClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	referer string
	title   string
}

func newHTTPClient(cfg *clientConfig) *httpClient {
	client := cfg.httpClient
	if client == nil {
		client = &http.Client{}
	}
	return &httpClient{
		client:  client,
		baseURL: strings.TrimRight(cfg.baseURL, "/"),
		apiKey:  cfg.apiKey,
		referer: cfg.referer,
		title:   cfg.title,
	}
}

// request sends a JSON request and decodes a JSON response into result.
func (h *httpClient) request(ctx context.Context, method, path string, body any, result any) error {
	resp, err := h.do(ctx, method, path, body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("provider: read response body: %w", err)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		snippet := strings.TrimSpace(string(data))
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		if snippet == "" {
			return fmt.Errorf("provider: gateway returned an empty response")
		}
		return fmt.Errorf("provider: gateway returned a non-JSON response: %s", snippet)
	}
	return nil
}

// requestStream sends a JSON request and returns the open event stream.
// The caller must close the response body.
func (h *httpClient) requestStream(ctx context.Context, path string, body any) (*http.Response, error) {
	return h.do(ctx, http.MethodPost, path, body, "text/event-stream")
}

func (h *httpClient) do(ctx context.Context, method, path string, body any, accept string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("provider: marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("provider: create request: %w", err)
	}
	h.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider: reach gateway: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, parseError(resp)
	}
	return resp, nil
}

// setHeaders sets common headers for gateway requests.
func (h *httpClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	if h.referer != "" {
		req.Header.Set("HTTP-Referer", h.referer)
	}
	if h.title != "" {
		req.Header.Set("X-Title", h.title)
	}
}

// parseError builds a *ProviderError from a non-2xx response.
func parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ProviderError{StatusCode: resp.StatusCode, Message: resp.Status}
	}
	var payload struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != nil && payload.Error.Message != "":
			return &ProviderError{StatusCode: resp.StatusCode, Message: payload.Error.Message}
		case payload.Message != "":
			return &ProviderError{StatusCode: resp.StatusCode, Message: payload.Message}
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return &ProviderError{StatusCode: resp.StatusCode, Message: msg}
}
