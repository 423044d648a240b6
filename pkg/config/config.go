// Package config resolves the settings of one mediaforge run: the stored
// context, then .env files, then MEDIAFORGE_* environment variables.
//
// Credentials are not validated here. Each provider operation checks its
// credential when it is first used.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/haivivi/mediaforge/pkg/agent"
	"github.com/haivivi/mediaforge/pkg/jsontime"
	"github.com/haivivi/mediaforge/pkg/kv"
	"github.com/haivivi/mediaforge/pkg/provider"
	"github.com/haivivi/mediaforge/pkg/storage"
	"github.com/haivivi/mediaforge/pkg/store"
	"github.com/haivivi/mediaforge/pkg/workspace"
)

// Endpoint is a credential plus an optional base URL.
type Endpoint struct {
	APIKey  string `yaml:"api_key,omitempty" json:"apiKey,omitempty"`
	BaseURL string `yaml:"base_url,omitempty" json:"baseUrl,omitempty"`
}

// Gateway configures the OpenAI-compatible gateway backend.
type Gateway struct {
	Endpoint `yaml:",inline"`
	Referer  string `yaml:"referer,omitempty" json:"referer,omitempty"`
	Title    string `yaml:"title,omitempty" json:"title,omitempty"`
}

// Store locates the remote state store.
type Store struct {
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
	Key string `yaml:"key,omitempty" json:"key,omitempty"`
}

// Export selects where artifacts are written. S3 wins when a bucket is set.
type Export struct {
	Dir string            `yaml:"dir,omitempty" json:"dir,omitempty"`
	S3  *storage.S3Config `yaml:"s3,omitempty" json:"s3,omitempty"`
}

// Settings is everything a run needs.
type Settings struct {
	Backend provider.Backend `yaml:"backend,omitempty" json:"backend,omitempty"`
	Gemini  Endpoint         `yaml:"gemini,omitempty" json:"gemini,omitempty"`
	Gateway Gateway          `yaml:"gateway,omitempty" json:"gateway,omitempty"`
	Models  provider.Models  `yaml:"models,omitempty" json:"models,omitempty"`

	PollInterval jsontime.Duration `yaml:"poll_interval,omitempty" json:"pollInterval,omitempty"`
	VideoTimeout jsontime.Duration `yaml:"video_timeout,omitempty" json:"videoTimeout,omitempty"`

	Store  Store  `yaml:"store,omitempty" json:"store,omitempty"`
	Export Export `yaml:"export,omitempty" json:"export,omitempty"`

	// Workspace is the badger directory of local projects.
	Workspace string `yaml:"workspace,omitempty" json:"workspace,omitempty"`

	// Agents is an agent roster file replacing the built-in one.
	Agents string `yaml:"agents,omitempty" json:"agents,omitempty"`

	DefaultVoice string `yaml:"default_voice,omitempty" json:"defaultVoice,omitempty"`
}

// LoadDotenv loads .env.local and .env from dir. Variables already set in
// the environment are kept, and .env.local wins over .env. Missing files are
// skipped.
func LoadDotenv(dir string) error {
	for _, name := range []string{".env.local", ".env"} {
		err := godotenv.Load(filepath.Join(dir, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", name, err)
		}
	}
	return nil
}

// FromEnv returns s with environment overrides applied. Invalid durations
// are reported; every other variable is taken as is.
func (s Settings) FromEnv(getenv func(string) string) (Settings, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	var backend string
	set(&backend, "MEDIAFORGE_BACKEND")
	if backend != "" {
		s.Backend = provider.Backend(strings.ToLower(backend))
	}
	set(&s.Gemini.APIKey, "MEDIAFORGE_GEMINI_API_KEY", "GEMINI_API_KEY")
	set(&s.Gemini.BaseURL, "MEDIAFORGE_GEMINI_BASE_URL")
	set(&s.Gateway.APIKey, "MEDIAFORGE_GATEWAY_API_KEY", "OPENROUTER_API_KEY")
	set(&s.Gateway.BaseURL, "MEDIAFORGE_GATEWAY_BASE_URL")
	set(&s.Gateway.Referer, "MEDIAFORGE_GATEWAY_REFERER")
	set(&s.Gateway.Title, "MEDIAFORGE_GATEWAY_TITLE")
	set(&s.Models.Structure, "MEDIAFORGE_MODEL_STRUCTURE")
	set(&s.Models.Image, "MEDIAFORGE_MODEL_IMAGE")
	set(&s.Models.Video, "MEDIAFORGE_MODEL_VIDEO")
	set(&s.Models.Speech, "MEDIAFORGE_MODEL_TTS")
	set(&s.Models.Chat, "MEDIAFORGE_MODEL_CHAT")
	set(&s.Store.URL, "MEDIAFORGE_STORE_URL")
	set(&s.Store.Key, "MEDIAFORGE_STORE_KEY")
	set(&s.Workspace, "MEDIAFORGE_WORKSPACE")
	set(&s.Agents, "MEDIAFORGE_AGENTS")
	set(&s.DefaultVoice, "MEDIAFORGE_VOICE")
	set(&s.Export.Dir, "MEDIAFORGE_EXPORT_DIR")

	var bucket string
	set(&bucket, "MEDIAFORGE_EXPORT_S3_BUCKET")
	if bucket != "" {
		if s.Export.S3 == nil {
			s.Export.S3 = &storage.S3Config{}
		} else {
			c := *s.Export.S3
			s.Export.S3 = &c
		}
		s.Export.S3.Bucket = bucket
		set(&s.Export.S3.Prefix, "MEDIAFORGE_EXPORT_S3_PREFIX")
		set(&s.Export.S3.Region, "MEDIAFORGE_EXPORT_S3_REGION", "AWS_REGION")
		set(&s.Export.S3.Endpoint, "MEDIAFORGE_EXPORT_S3_ENDPOINT")
		set(&s.Export.S3.AccessKey, "MEDIAFORGE_EXPORT_S3_ACCESS_KEY", "AWS_ACCESS_KEY_ID")
		set(&s.Export.S3.SecretKey, "MEDIAFORGE_EXPORT_S3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY")
	}

	for key, dst := range map[string]*jsontime.Duration{
		"MEDIAFORGE_VIDEO_POLL_INTERVAL": &s.PollInterval,
		"MEDIAFORGE_VIDEO_TIMEOUT":       &s.VideoTimeout,
	} {
		var v string
		set(&v, key)
		if v == "" {
			continue
		}
		if err := dst.UnmarshalText([]byte(v)); err != nil {
			return s, fmt.Errorf("config: %s: %w", key, err)
		}
	}
	return s, nil
}

// ProviderConfig returns the provider configuration of the selected backend.
func (s Settings) ProviderConfig() provider.Config {
	cfg := provider.Config{
		Backend:      s.Backend,
		Models:       s.Models,
		PollInterval: time.Duration(s.PollInterval),
		VideoTimeout: time.Duration(s.VideoTimeout),
	}
	switch s.Backend {
	case provider.BackendGateway:
		cfg.APIKey = s.Gateway.APIKey
		cfg.BaseURL = s.Gateway.BaseURL
		cfg.Referer = s.Gateway.Referer
		cfg.Title = s.Gateway.Title
	default:
		cfg.APIKey = s.Gemini.APIKey
		cfg.BaseURL = s.Gemini.BaseURL
	}
	return cfg
}

// Provider creates the configured provider.
func (s Settings) Provider() (provider.Provider, error) {
	return provider.New(s.ProviderConfig())
}

// StoreClient creates the store client. An unconfigured client fails each
// call with store.ErrNotConfigured.
func (s Settings) StoreClient() *store.Client {
	return store.NewClient(s.Store.URL, s.Store.Key)
}

// Roster returns the agent roster file, or the built-in roster.
func (s Settings) Roster() (*agent.Roster, error) {
	if s.Agents == "" {
		return agent.Builtin(), nil
	}
	return agent.LoadRoster(s.Agents)
}

// OpenWorkspace opens the workspace kv. The returned store must be closed.
func (s Settings) OpenWorkspace() (*workspace.Workspace, kv.Store, error) {
	db, err := kv.Open(s.Workspace)
	if err != nil {
		return nil, nil, err
	}
	return workspace.New(db), db, nil
}

// ExportStore returns the artifact store: S3 when a bucket is configured,
// otherwise the export directory. It returns nil, nil when neither is set.
func (s Settings) ExportStore() (storage.FileStore, error) {
	switch {
	case s.Export.S3 != nil && s.Export.S3.Bucket != "":
		return storage.NewS3FromConfig(*s.Export.S3)
	case s.Export.Dir != "":
		return storage.NewLocal(s.Export.Dir)
	default:
		return nil, nil
	}
}

// Voice returns v, or the default voice when v is empty.
func (s Settings) Voice(v string) string {
	if v != "" {
		return v
	}
	if s.DefaultVoice != "" {
		return s.DefaultVoice
	}
	return provider.DefaultVoice
}
