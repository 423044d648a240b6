package store

import (
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 30 * time.Second

// Client talks to the process_items and chat_histories tables.
type Client struct {
	config *clientConfig
	http   *httpClient
}

type clientConfig struct {
	url        string
	key        string
	httpClient *http.Client
	timeout    time.Duration
}

// Option is a function that configures the client.
type Option func(*clientConfig)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// NewClient creates a store client. url is the project URL without the
// /rest/v1 suffix and key is the anon or service key. Empty values are
// accepted; every call then fails with ErrNotConfigured.
func NewClient(url, key string, opts ...Option) *Client {
	cfg := &clientConfig{
		url:     strings.TrimRight(url, "/"),
		key:     key,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: cfg.timeout}
	}
	return &Client{
		config: cfg,
		http:   newHTTPClient(cfg),
	}
}

// URL returns the configured project URL.
func (c *Client) URL() string {
	return c.config.url
}
