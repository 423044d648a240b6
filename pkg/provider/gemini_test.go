package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"
)

// newGeminiServer serves fixed generateContent and streamGenerateContent
// bodies for any model.
func newGeminiServer(t *testing.T, unary string, stream []string) (*httptest.Server, *[]string) {
	t.Helper()
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		switch {
		case strings.HasSuffix(r.URL.Path, ":streamGenerateContent"):
			w.Header().Set("Content-Type", "text/event-stream")
			for _, s := range stream {
				fmt.Fprintf(w, "data: %s\n\n", s)
			}
		case strings.HasSuffix(r.URL.Path, ":generateContent"):
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, unary)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &bodies
}

func TestGemini_MissingKey(t *testing.T) {
	g := NewGemini("")
	ctx := context.Background()

	checks := map[string]error{
		"structure": g.StructureText(ctx, "text", func(string) {}),
		"chat":      g.StreamChat(ctx, []Turn{{Role: RoleUser, Text: "hi"}}, "", func(string) {}),
		"speech":    g.SynthesizeSpeech(ctx, "text", "Kore", func(AudioChunk) {}),
	}
	_, checks["image"] = g.EditImage(ctx, []byte{1}, "image/png", "edit")
	_, checks["video"] = g.GenerateVideo(ctx, "move", []byte{1}, "image/png")

	for name, err := range checks {
		var ce *ConfigurationError
		if !errors.As(err, &ce) {
			t.Errorf("%s: error = %v, want *ConfigurationError", name, err)
			continue
		}
		if ce.Backend != BackendNative {
			t.Errorf("%s: Backend = %q", name, ce.Backend)
		}
	}
}

func TestGemini_EditImageTextOnly(t *testing.T) {
	srv, _ := newGeminiServer(t, `{"candidates":[{"content":{"role":"model","parts":[{"text":"I cannot edit this image."}]}}]}`, nil)
	g := NewGemini("test-key", WithBaseURL(srv.URL))

	uri, err := g.EditImage(context.Background(), []byte{0x89, 0x50}, "image/png", "make it blue")
	if uri != "" {
		t.Errorf("uri = %q, want empty", uri)
	}
	var e *NoImageReturnedError
	if !errors.As(err, &e) {
		t.Fatalf("error = %v, want *NoImageReturnedError", err)
	}
	if e.Text != "I cannot edit this image." {
		t.Errorf("Text = %q", e.Text)
	}
	if Kind(err) != "no_image_returned" {
		t.Errorf("Kind = %q", Kind(err))
	}
}

func TestGemini_EditImage(t *testing.T) {
	img := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	srv, bodies := newGeminiServer(t, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Here you go"},{"inlineData":{"mimeType":"image/png","data":"`+img+`"}}]}}]}`, nil)
	g := NewGemini("test-key", WithBaseURL(srv.URL))

	uri, err := g.EditImage(context.Background(), []byte("src"), "image/jpeg", "make it blue")
	if err != nil {
		t.Fatalf("EditImage() error = %v", err)
	}
	if want := "data:image/png;base64," + img; uri != want {
		t.Errorf("uri = %q, want %q", uri, want)
	}
	if len(*bodies) != 1 || !strings.Contains((*bodies)[0], `"IMAGE"`) {
		t.Errorf("request did not ask for image modality: %v", *bodies)
	}
}

func TestGemini_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`)
	}))
	defer srv.Close()
	g := NewGemini("bad-key", WithBaseURL(srv.URL))

	_, err := g.EditImage(context.Background(), []byte{1}, "image/png", "x")
	pe, ok := AsProviderError(err)
	if !ok {
		t.Fatalf("error = %v, want *ProviderError", err)
	}
	if pe.StatusCode != 403 || pe.Message != "API key not valid" {
		t.Errorf("got %+v", pe)
	}
	if !pe.IsAuth() {
		t.Error("IsAuth() = false")
	}
}

func TestGemini_StructureText(t *testing.T) {
	srv, bodies := newGeminiServer(t, "", []string{
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"scenes\":["}]}}]}`,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"id\":\"1\",\"script\":\"a\"}]}"}]}}]}`,
	})
	g := NewGemini("test-key", WithBaseURL(srv.URL))

	var sb strings.Builder
	if err := g.StructureText(context.Background(), "once upon a time", func(s string) { sb.WriteString(s) }); err != nil {
		t.Fatalf("StructureText() error = %v", err)
	}
	if got, want := sb.String(), `{"scenes":[{"id":"1","script":"a"}]}`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if len(*bodies) != 1 || !strings.Contains((*bodies)[0], `"responseMimeType":"application/json"`) {
		t.Errorf("request missing JSON response type: %v", *bodies)
	}
}

func TestGemini_SynthesizeSpeech(t *testing.T) {
	pcm := base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4})
	srv, _ := newGeminiServer(t, "", []string{
		`{"candidates":[{"content":{"role":"model","parts":[{"inlineData":{"mimeType":"audio/L16;codec=pcm;rate=24000","data":"` + pcm + `"}}]}}]}`,
		`{"candidates":[{"content":{"role":"model","parts":[{"inlineData":{"mimeType":"audio/L16;codec=pcm;rate=24000","data":"` + pcm + `"}}]}}]}`,
	})
	g := NewGemini("test-key", WithBaseURL(srv.URL))

	var chunks []AudioChunk
	if err := g.SynthesizeSpeech(context.Background(), "hello", "Kore", func(c AudioChunk) { chunks = append(chunks, c) }); err != nil {
		t.Fatalf("SynthesizeSpeech() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].MIMEType != "audio/L16;codec=pcm;rate=24000" || string(chunks[1].Data) != "\x01\x02\x03\x04" {
		t.Errorf("unexpected chunk %+v", chunks[0])
	}
}

func TestGemini_SynthesizeSpeechNoAudio(t *testing.T) {
	srv, _ := newGeminiServer(t, "", []string{
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"voice not supported"}]}}]}`,
	})
	g := NewGemini("test-key", WithBaseURL(srv.URL))

	err := g.SynthesizeSpeech(context.Background(), "hello", "Nobody", func(AudioChunk) {
		t.Error("sink must not be called")
	})
	var e *NoAudioReturnedError
	if !errors.As(err, &e) {
		t.Fatalf("error = %v, want *NoAudioReturnedError", err)
	}
	if e.Text != "voice not supported" {
		t.Errorf("Text = %q", e.Text)
	}
}

// fakeVideoJobs reports a fixed sequence of operation states.
type fakeVideoJobs struct {
	submitted *genai.GenerateVideosOperation
	states    []*genai.GenerateVideosOperation
	checks    int
}

func (f *fakeVideoJobs) Submit(ctx context.Context, model, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	return f.submitted, nil
}

func (f *fakeVideoJobs) Check(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	if op.Name != f.submitted.Name {
		return nil, fmt.Errorf("unexpected operation %q", op.Name)
	}
	state := f.states[f.checks]
	f.checks++
	return state, nil
}

func doneWithURI(uri string) *genai.GenerateVideosOperation {
	return &genai.GenerateVideosOperation{
		Name: "operations/1",
		Done: true,
		Response: &genai.GenerateVideosResponse{
			GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{URI: uri}}},
		},
	}
}

func TestGemini_GenerateVideoPolling(t *testing.T) {
	pending := &genai.GenerateVideosOperation{Name: "operations/1"}
	jobs := &fakeVideoJobs{
		submitted: pending,
		states:    []*genai.GenerateVideosOperation{pending, pending, doneWithURI("https://example.com/v1/files/abc:download?alt=media")},
	}
	g := NewGemini("secret", WithPollInterval(time.Millisecond))
	g.jobs = jobs

	uri, err := g.GenerateVideo(context.Background(), "pan left", []byte{1}, "image/png")
	if err != nil {
		t.Fatalf("GenerateVideo() error = %v", err)
	}
	if jobs.checks != 3 {
		t.Errorf("checks = %d, want 3", jobs.checks)
	}
	if want := "https://example.com/v1/files/abc:download?alt=media&key=secret"; uri != want {
		t.Errorf("uri = %q, want %q", uri, want)
	}
}

func TestGemini_GenerateVideoJobFailure(t *testing.T) {
	pending := &genai.GenerateVideosOperation{Name: "operations/1"}
	failed := &genai.GenerateVideosOperation{
		Name:  "operations/1",
		Done:  true,
		Error: map[string]any{"code": 3, "message": "prompt rejected"},
	}
	g := NewGemini("secret", WithPollInterval(time.Millisecond))
	g.jobs = &fakeVideoJobs{submitted: pending, states: []*genai.GenerateVideosOperation{failed}}

	_, err := g.GenerateVideo(context.Background(), "x", nil, "")
	var e *VideoGenerationError
	if !errors.As(err, &e) {
		t.Fatalf("error = %v, want *VideoGenerationError", err)
	}
	if e.Code != "3" || e.Message != "prompt rejected" {
		t.Errorf("got %+v", e)
	}
}

func TestGemini_GenerateVideoNoURI(t *testing.T) {
	done := &genai.GenerateVideosOperation{Name: "operations/1", Done: true, Response: &genai.GenerateVideosResponse{}}
	g := NewGemini("secret", WithPollInterval(time.Millisecond))
	jobs := &fakeVideoJobs{submitted: done}
	g.jobs = jobs

	_, err := g.GenerateVideo(context.Background(), "x", nil, "")
	var e *NoVideoReturnedError
	if !errors.As(err, &e) {
		t.Fatalf("error = %v, want *NoVideoReturnedError", err)
	}
	if jobs.checks != 0 {
		t.Errorf("checks = %d, want 0 for an already finished job", jobs.checks)
	}
}

func TestGemini_GenerateVideoTimeout(t *testing.T) {
	pending := &genai.GenerateVideosOperation{Name: "operations/1"}
	g := NewGemini("secret", WithPollInterval(time.Hour), WithVideoTimeout(10*time.Millisecond))
	g.jobs = &fakeVideoJobs{submitted: pending}

	_, err := g.GenerateVideo(context.Background(), "x", nil, "")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(ScriptSchema())
	if s.Type != genai.TypeObject {
		t.Fatalf("Type = %v", s.Type)
	}
	scenes := s.Properties["scenes"]
	if scenes == nil || scenes.Type != genai.TypeArray {
		t.Fatalf("scenes = %+v", scenes)
	}
	item := scenes.Items
	if item == nil || item.Properties["id"].Type != genai.TypeString || item.Properties["script"].Type != genai.TypeString {
		t.Fatalf("items = %+v", item)
	}
	if got := strings.Join(item.PropertyOrdering, ","); got != "id,script" {
		t.Errorf("PropertyOrdering = %q", got)
	}
}
