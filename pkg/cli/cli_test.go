package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/haivivi/mediaforge/pkg/config"
	"github.com/haivivi/mediaforge/pkg/provider"
	"github.com/haivivi/mediaforge/pkg/storage"
)

func TestConfig_Contexts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Contexts) != 0 {
		t.Fatalf("fresh config has contexts: %v", cfg.Contexts)
	}
	if ctx, err := cfg.ResolveContext(""); err != nil || ctx.Name != "" {
		t.Errorf("ResolveContext on empty config = %+v, %v", ctx, err)
	}

	prod := &Context{Settings: config.Settings{
		Backend: provider.BackendGateway,
		Gateway: config.Gateway{Endpoint: config.Endpoint{APIKey: "sk-or-1234567890"}, Title: "Console"},
		Models:  provider.Models{Chat: "google/gemini-2.5-pro"},
		Store:   config.Store{URL: "https://x.supabase.co", Key: "anon"},
		Export:  config.Export{S3: &storage.S3Config{Bucket: "media", SecretKey: "secret-secret"}},
	}}
	if err := cfg.AddContext("prod", prod); err != nil {
		t.Fatal(err)
	}
	if err := cfg.AddContext("dev", &Context{}); err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentContext != "prod" {
		t.Errorf("first context not current: %q", cfg.CurrentContext)
	}
	if err := cfg.UseContext("missing"); err == nil {
		t.Error("UseContext(missing) succeeded")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config mode = %v", info.Mode().Perm())
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := loaded.ListContexts(); len(got) != 2 || got[0] != "dev" || got[1] != "prod" {
		t.Errorf("ListContexts = %v", got)
	}
	ctx, err := loaded.ResolveContext("")
	if err != nil {
		t.Fatal(err)
	}
	if ctx.Name != "prod" || ctx.Backend != provider.BackendGateway || ctx.Gateway.APIKey != "sk-or-1234567890" ||
		ctx.Gateway.Title != "Console" || ctx.Models.Chat != "google/gemini-2.5-pro" || ctx.Store.Key != "anon" ||
		ctx.Export.S3 == nil || ctx.Export.S3.Bucket != "media" {
		t.Errorf("round trip = %+v", ctx)
	}

	m := ctx.Masked()
	if m.Gateway.APIKey != "sk-o********7890" || m.Export.S3.SecretKey == "secret-secret" {
		t.Errorf("Masked = %+v", m)
	}
	if ctx.Export.S3.SecretKey != "secret-secret" {
		t.Error("Masked changed the original")
	}

	if err := loaded.DeleteContext("prod"); err != nil {
		t.Fatal(err)
	}
	if loaded.CurrentContext != "" {
		t.Errorf("current after delete = %q", loaded.CurrentContext)
	}
	if err := loaded.DeleteContext("prod"); err == nil {
		t.Error("second delete succeeded")
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"short", "*****"},
		{"12345678", "********"},
		{"1234567890abcdef", "1234********cdef"},
	}
	for _, tt := range tests {
		if got := MaskAPIKey(tt.in); got != tt.want {
			t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type row struct {
	Title string `json:"title" yaml:"title"`
	Type  string `json:"type" yaml:"type"`
}

func TestOutput(t *testing.T) {
	data := []row{{"Казна", "topic"}, {"Гении", "script"}}
	tests := []struct {
		name string
		opts OutputOptions
		want string
	}{
		{"json", OutputOptions{Format: FormatJSON}, "[\n  {\n    \"title\": \"Казна\",\n    \"type\": \"topic\"\n  },\n  {\n    \"title\": \"Гении\",\n    \"type\": \"script\"\n  }\n]\n"},
		{"query single", OutputOptions{Format: FormatJSON, Query: ".[0].title"}, "\"Казна\"\n"},
		{"query many", OutputOptions{Format: FormatJSON, Query: ".[] | .type"}, "[\n  \"topic\",\n  \"script\"\n]\n"},
		{"yaml", OutputOptions{Query: "length"}, "2\n"},
		{"table", OutputOptions{Format: FormatTable, Table: func(any) string { return "T" }}, "T\n"},
		{"raw", OutputOptions{Format: FormatRaw, Query: ".[1].title"}, "Гении"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.opts.Writer = &buf
			if err := Output(data, tt.opts); err != nil {
				t.Fatal(err)
			}
			if buf.String() != tt.want {
				t.Errorf("Output = %q, want %q", buf.String(), tt.want)
			}
		})
	}

	var buf bytes.Buffer
	if err := Output(data, OutputOptions{Writer: &buf, Query: ".["}); err == nil {
		t.Error("bad query accepted")
	}
	if err := Output(data, OutputOptions{Writer: &buf, Format: "xml"}); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestParseRequest(t *testing.T) {
	type req struct {
		Text  string `json:"text" yaml:"text"`
		Voice string `json:"voice" yaml:"voice"`
	}
	tests := []struct {
		name, file, data string
		wantErr          bool
	}{
		{"yaml", "r.yaml", "text: hi\nvoice: Kore\n", false},
		{"json", "r.json", `{"text":"hi","voice":"Kore"}`, false},
		{"sniffed", "r", `{"text":"hi","voice":"Kore"}`, false},
		{"bad json", "r.json", `{`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r req
			err := ParseRequest([]byte(tt.data), tt.file, &r)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil || r != (req{"hi", "Kore"}) {
				t.Errorf("ParseRequest = %+v, %v", r, err)
			}
		})
	}
}

func TestStyles_Table(t *testing.T) {
	s := NewStyles(DefaultTheme)
	out := s.Table([]string{"ID", "TITLE"}, [][]string{{"1", "a very long title\nwith newline"}}, 10)
	if !strings.Contains(out, "TITLE") || !strings.Contains(out, "a very lo…") {
		t.Errorf("table = %q", out)
	}
	if truncate("short", 10) != "short" {
		t.Error("truncate changed a short string")
	}
}
