package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Provider is the backend-agnostic generation contract.
//
// Sinks are called synchronously on the calling goroutine, in arrival order.
// When an operation fails midway, fragments already passed to a sink stay
// delivered.
type Provider interface {
	// StructureText restructures free-form text into a JSON scene list and
	// streams the raw response text to sink. The text is not validated.
	StructureText(ctx context.Context, rawText string, sink func(string)) error

	// EditImage applies instruction to image and returns the result as a
	// data URI (or a remote URL when the upstream returns one).
	EditImage(ctx context.Context, image []byte, mimeType, instruction string) (string, error)

	// GenerateVideo submits a video job seeded by image, waits for it to
	// finish and returns a playable reference.
	GenerateVideo(ctx context.Context, instruction string, image []byte, mimeType string) (string, error)

	// SynthesizeSpeech streams audio chunks for text spoken in voice. It
	// returns *NoAudioReturnedError when no chunk was produced.
	SynthesizeSpeech(ctx context.Context, text, voice string, sink func(AudioChunk)) error

	// StreamChat streams the next model turn given the prior turns and an
	// optional system instruction.
	StreamChat(ctx context.Context, history []Turn, systemInstruction string, sink func(string)) error
}

// Role is the author of a chat turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one chat message.
type Turn struct {
	Role Role   `json:"role" yaml:"role" msgpack:"role"`
	Text string `json:"text" yaml:"text" msgpack:"text"`
}

// AudioChunk is one fragment of synthesized audio.
type AudioChunk struct {
	Data     []byte
	MIMEType string
}

// Backend selects the upstream.
type Backend string

const (
	// BackendNative talks to the Gemini API through the genai SDK.
	BackendNative Backend = "native"

	// BackendGateway talks to an OpenAI-compatible HTTP gateway.
	BackendGateway Backend = "gateway"
)

const (
	// DefaultPollInterval is the wait between video job status checks.
	DefaultPollInterval = 10 * time.Second

	// DefaultGatewayBaseURL is the default gateway endpoint.
	DefaultGatewayBaseURL = "https://openrouter.ai/api/v1"
)

// Models holds the model identifier for each capability. Empty fields fall
// back to the backend defaults.
type Models struct {
	Structure string `json:"structure,omitempty" yaml:"structure,omitempty"`
	Image     string `json:"image,omitempty" yaml:"image,omitempty"`
	Video     string `json:"video,omitempty" yaml:"video,omitempty"`
	Speech    string `json:"speech,omitempty" yaml:"speech,omitempty"`
	Chat      string `json:"chat,omitempty" yaml:"chat,omitempty"`
}

// DefaultNativeModels are used by the native backend.
var DefaultNativeModels = Models{
	Structure: "gemini-2.5-flash",
	Image:     "gemini-2.5-flash-image",
	Video:     "veo-2.0-generate-001",
	Speech:    "gemini-2.5-pro-preview-tts",
	Chat:      "gemini-2.5-flash",
}

// DefaultGatewayModels are used by the gateway backend.
var DefaultGatewayModels = Models{
	Structure: "google/gemini-2.0-flash-lite-preview",
	Image:     "google/gemini-2.5-flash-image",
	Video:     "google/gemini-2.0-flash-lite-preview",
	Speech:    "google/gemini-2.0-flash-lite-preview",
	Chat:      "google/gemini-2.5-flash",
}

func (m Models) withDefaults(def Models) Models {
	if m.Structure == "" {
		m.Structure = def.Structure
	}
	if m.Image == "" {
		m.Image = def.Image
	}
	if m.Video == "" {
		m.Video = def.Video
	}
	if m.Speech == "" {
		m.Speech = def.Speech
	}
	if m.Chat == "" {
		m.Chat = def.Chat
	}
	return m
}

// Config selects and configures one backend.
type Config struct {
	Backend Backend
	APIKey  string

	// BaseURL overrides the upstream endpoint.
	BaseURL string

	// Referer and Title are sent to the gateway as attribution headers.
	Referer string
	Title   string

	Models Models

	// PollInterval is the wait between video status checks. Zero means
	// DefaultPollInterval.
	PollInterval time.Duration

	// VideoTimeout bounds the whole video job. Zero polls until the job
	// leaves the pending state.
	VideoTimeout time.Duration

	HTTPClient *http.Client
}

// clientConfig holds the resolved backend configuration.
type clientConfig struct {
	apiKey       string
	baseURL      string
	referer      string
	title        string
	models       Models
	pollInterval time.Duration
	videoTimeout time.Duration
	httpClient   *http.Client
}

// Option is a function that configures a backend.
type Option func(*clientConfig)

// WithBaseURL sets a custom upstream endpoint.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithModels overrides the model identifiers. Empty fields keep the default.
func WithModels(m Models) Option {
	return func(c *clientConfig) {
		c.models = m
	}
}

// WithPollInterval sets the wait between video job status checks.
func WithPollInterval(d time.Duration) Option {
	return func(c *clientConfig) {
		c.pollInterval = d
	}
}

// WithVideoTimeout bounds how long GenerateVideo waits for a job.
func WithVideoTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.videoTimeout = d
	}
}

// WithAttribution sets the HTTP-Referer and X-Title headers sent to the
// gateway.
func WithAttribution(referer, title string) Option {
	return func(c *clientConfig) {
		c.referer = referer
		c.title = title
	}
}

func newClientConfig(apiKey string, defaults Models, opts []Option) *clientConfig {
	cfg := &clientConfig{
		apiKey:       apiKey,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.models = cfg.models.withDefaults(defaults)
	if cfg.pollInterval <= 0 {
		cfg.pollInterval = DefaultPollInterval
	}
	return cfg
}

// New creates the Provider selected by cfg.Backend. An empty backend selects
// the native one.
func New(cfg Config) (Provider, error) {
	opts := []Option{
		WithModels(cfg.Models),
		WithPollInterval(cfg.PollInterval),
		WithVideoTimeout(cfg.VideoTimeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, WithHTTPClient(cfg.HTTPClient))
	}

	switch cfg.Backend {
	case BackendNative, "":
		return NewGemini(cfg.APIKey, opts...), nil
	case BackendGateway:
		opts = append(opts, WithAttribution(cfg.Referer, cfg.Title))
		return NewGateway(cfg.APIKey, opts...), nil
	default:
		return nil, fmt.Errorf("provider: unknown backend %q", cfg.Backend)
	}
}
