package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// Prefer header values.
const (
	preferRepresentation = "return=representation"
	preferMergeDuplicate = "resolution=merge-duplicates"
)

// httpClient handles HTTP communication with PostgREST.
type httpClient struct {
	client *http.Client
	base   string
	key    string
}

func newHTTPClient(cfg *clientConfig) *httpClient {
	base := ""
	if cfg.url != "" {
		base = cfg.url + "/rest/v1"
	}
	return &httpClient{
		client: cfg.httpClient,
		base:   base,
		key:    cfg.key,
	}
}

// call describes one request against a table.
type call struct {
	op     string
	method string
	table  string
	query  url.Values
	prefer string
	body   any
}

// request performs c and decodes a JSON response into result. Writes are
// never retried.
func (h *httpClient) request(ctx context.Context, c call, result any) error {
	if h.base == "" || h.key == "" {
		return ErrNotConfigured
	}

	var bodyReader io.Reader
	if c.body != nil {
		data, err := json.Marshal(c.body)
		if err != nil {
			return fmt.Errorf("store: %s: marshal request body: %w", c.op, err)
		}
		bodyReader = bytes.NewReader(data)
	}

	u := h.base + "/" + c.table
	if len(c.query) > 0 {
		u += "?" + encodeQuery(c.query)
	}
	req, err := http.NewRequestWithContext(ctx, c.method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("store: %s: create request: %w", c.op, err)
	}
	h.setHeaders(req)
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.prefer != "" {
		req.Header.Set("Prefer", c.prefer)
	}

	slog.Debug("store: request", "op", c.op, "method", c.method, "table", c.table)
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("store: %s: %w", c.op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("store: %s: read response body: %w", c.op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(c.op, resp, data)
	}
	if result == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("store: %s: decode response: %w", c.op, err)
	}
	return nil
}

// setHeaders sets credentials and disables intermediate caching.
func (h *httpClient) setHeaders(req *http.Request) {
	req.Header.Set("apikey", h.key)
	req.Header.Set("Authorization", "Bearer "+h.key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
}

func parseError(op string, resp *http.Response, body []byte) error {
	e := &Error{StatusCode: resp.StatusCode, Op: op}
	var payload struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Details any    `json:"details"`
		Hint    any    `json:"hint"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		e.Message = payload.Message
		e.Code = payload.Code
		e.Details = stringify(payload.Details)
		e.Hint = stringify(payload.Hint)
		if e.Message == "" {
			e.Message = stringify(payload.Error)
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
	}
	if e.Message == "" {
		e.Message = resp.Status
	}
	return classify(e)
}

func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	data, _ := json.Marshal(v)
	return string(data)
}

// encodeQuery encodes PostgREST parameters. Operator syntax such as
// eq.false or in.("a","b") is kept readable; only characters that would break
// the query string are escaped.
func encodeQuery(q url.Values) string {
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(q)) {
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(postgrestEscaper.Replace(v))
		}
	}
	return b.String()
}

var postgrestEscaper = strings.NewReplacer(
	"%", "%25",
	"&", "%26",
	"#", "%23",
	"+", "%2B",
	" ", "%20",
	`"`, "%22",
)
