package provider

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"
)

var _ Provider = (*Gemini)(nil)

// Gemini is the native backend. It drives the Gemini API through the genai
// SDK. The SDK client is created on first use.
type Gemini struct {
	config *clientConfig

	mu     sync.Mutex
	client *genai.Client
	jobs   videoJobs
}

// NewGemini creates a native backend. An empty apiKey is accepted; every
// operation then fails with *ConfigurationError.
func NewGemini(apiKey string, opts ...Option) *Gemini {
	return &Gemini{config: newClientConfig(apiKey, DefaultNativeModels, opts)}
}

// Models returns the resolved model identifiers.
func (g *Gemini) Models() Models {
	return g.config.models
}

func (g *Gemini) genaiClient(ctx context.Context) (*genai.Client, error) {
	if g.config.apiKey == "" {
		return nil, &ConfigurationError{Backend: BackendNative, Setting: "api key"}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     g.config.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.config.httpClient,
	}
	if g.config.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: g.config.baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("provider: create genai client: %w", err)
	}
	g.client = client
	return client, nil
}

// StructureText implements Provider.
func (g *Gemini) StructureText(ctx context.Context, rawText string, sink func(string)) error {
	client, err := g.genaiClient(ctx)
	if err != nil {
		return err
	}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiSchema(ScriptSchema()),
	}
	slog.Debug("provider: structure text", "backend", BackendNative, "model", g.config.models.Structure, "bytes", len(rawText))
	return geminiStreamText(client.Models.GenerateContentStream(ctx, g.config.models.Structure, genai.Text(structurePrompt(rawText)), cfg), sink)
}

// StreamChat implements Provider.
func (g *Gemini) StreamChat(ctx context.Context, history []Turn, systemInstruction string, sink func(string)) error {
	client, err := g.genaiClient(ctx)
	if err != nil {
		return err
	}
	contents := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		role := genai.RoleUser
		if t.Role == RoleModel {
			role = genai.RoleModel
		}
		if t.Text == "" {
			continue
		}
		contents = append(contents, genai.NewContentFromText(t.Text, genai.Role(role)))
	}
	if len(contents) == 0 {
		return errors.New("provider: chat history has no turns")
	}
	cfg := &genai.GenerateContentConfig{}
	if systemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(systemInstruction)}}
	}
	slog.Debug("provider: stream chat", "backend", BackendNative, "model", g.config.models.Chat, "turns", len(contents))
	return geminiStreamText(client.Models.GenerateContentStream(ctx, g.config.models.Chat, contents, cfg), sink)
}

// EditImage implements Provider.
func (g *Gemini) EditImage(ctx context.Context, image []byte, mimeType, instruction string) (string, error) {
	client, err := g.genaiClient(ctx)
	if err != nil {
		return "", err
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(instruction),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage), string(genai.ModalityText)},
	}
	slog.Debug("provider: edit image", "backend", BackendNative, "model", g.config.models.Image, "bytes", len(image))
	resp, err := client.Models.GenerateContent(ctx, g.config.models.Image, contents, cfg)
	if err != nil {
		return "", geminiError(err)
	}
	return geminiImage(resp)
}

// GenerateVideo implements Provider.
func (g *Gemini) GenerateVideo(ctx context.Context, instruction string, image []byte, mimeType string) (string, error) {
	jobs, err := g.videoJobs(ctx)
	if err != nil {
		return "", err
	}
	if g.config.videoTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.videoTimeout)
		defer cancel()
	}

	var img *genai.Image
	if len(image) > 0 {
		img = &genai.Image{ImageBytes: image, MIMEType: mimeType}
	}
	op, err := jobs.Submit(ctx, g.config.models.Video, instruction, img, &genai.GenerateVideosConfig{NumberOfVideos: 1})
	if err != nil {
		return "", geminiError(err)
	}
	slog.Debug("provider: video submitted", "backend", BackendNative, "model", g.config.models.Video, "operation", op.Name)

	op, err = waitJob(ctx, op.Name, videoState(op), g.config.pollInterval, func(ctx context.Context) (jobState[*genai.GenerateVideosOperation], error) {
		next, err := jobs.Check(ctx, op)
		if err != nil {
			return jobState[*genai.GenerateVideosOperation]{}, geminiError(err)
		}
		op = next
		return videoState(next), nil
	})
	if err != nil {
		return "", err
	}
	return geminiVideo(op, g.config.apiKey)
}

// SynthesizeSpeech implements Provider.
func (g *Gemini) SynthesizeSpeech(ctx context.Context, text, voice string, sink func(AudioChunk)) error {
	client, err := g.genaiClient(ctx)
	if err != nil {
		return err
	}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	var (
		chunks int
		total  int
		note   strings.Builder
	)
	for resp, err := range client.Models.GenerateContentStream(ctx, g.config.models.Speech, contents, cfg) {
		if err != nil {
			return geminiError(err)
		}
		for _, p := range firstParts(resp) {
			if p.InlineData != nil && len(p.InlineData.Data) > 0 && p.InlineData.MIMEType != "" {
				chunks++
				total += len(p.InlineData.Data)
				sink(AudioChunk{Data: p.InlineData.Data, MIMEType: p.InlineData.MIMEType})
				continue
			}
			if p.Text != "" && !p.Thought {
				note.WriteString(p.Text)
			}
		}
	}
	slog.Debug("provider: speech finished", "backend", BackendNative, "voice", voice, "chunks", chunks, "bytes", total)
	if chunks == 0 {
		return &NoAudioReturnedError{Text: note.String()}
	}
	return nil
}

// videoJobs submits and checks video generation operations.
type videoJobs interface {
	Submit(ctx context.Context, model, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	Check(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
}

type genaiVideoJobs struct {
	client *genai.Client
}

func (j genaiVideoJobs) Submit(ctx context.Context, model, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	return j.client.Models.GenerateVideos(ctx, model, prompt, image, cfg)
}

func (j genaiVideoJobs) Check(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	return j.client.Operations.GetVideosOperation(ctx, op, nil)
}

func (g *Gemini) videoJobs(ctx context.Context) (videoJobs, error) {
	client, err := g.genaiClient(ctx)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.jobs == nil {
		g.jobs = genaiVideoJobs{client: client}
	}
	return g.jobs, nil
}

func videoState(op *genai.GenerateVideosOperation) jobState[*genai.GenerateVideosOperation] {
	return jobState[*genai.GenerateVideosOperation]{done: op.Done, result: op}
}

// geminiVideo turns a finished operation into a playable reference.
func geminiVideo(op *genai.GenerateVideosOperation, apiKey string) (string, error) {
	if len(op.Error) > 0 {
		return "", &VideoGenerationError{
			Code:    fmt.Sprint(op.Error["code"]),
			Message: fmt.Sprint(op.Error["message"]),
		}
	}
	if op.Response != nil {
		for _, gv := range op.Response.GeneratedVideos {
			if gv == nil || gv.Video == nil {
				continue
			}
			if gv.Video.URI != "" {
				return withKey(gv.Video.URI, apiKey), nil
			}
			if len(gv.Video.VideoBytes) > 0 {
				mime := gv.Video.MIMEType
				if mime == "" {
					mime = "video/mp4"
				}
				return DataURI(mime, gv.Video.VideoBytes), nil
			}
		}
		if len(op.Response.RAIMediaFilteredReasons) > 0 {
			return "", &NoVideoReturnedError{Text: strings.Join(op.Response.RAIMediaFilteredReasons, "; ")}
		}
	}
	return "", &NoVideoReturnedError{}
}

// geminiImage returns the first inline image of a response as a data URI.
func geminiImage(resp *genai.GenerateContentResponse) (string, error) {
	var text strings.Builder
	for _, p := range firstParts(resp) {
		if p.InlineData != nil && len(p.InlineData.Data) > 0 {
			return DataURI(p.InlineData.MIMEType, p.InlineData.Data), nil
		}
		if p.Text != "" && !p.Thought {
			text.WriteString(p.Text)
		}
	}
	return "", &NoImageReturnedError{Text: text.String()}
}

func geminiStreamText(itr iter.Seq2[*genai.GenerateContentResponse, error], sink func(string)) error {
	for resp, err := range itr {
		if err != nil {
			return geminiError(err)
		}
		for _, p := range firstParts(resp) {
			if p.Text != "" && !p.Thought {
				sink(p.Text)
			}
		}
	}
	return nil
}

func firstParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return nil
	}
	return c.Content.Parts
}

// geminiError maps SDK errors onto *ProviderError.
func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	var gaxErr *apierror.APIError
	if errors.As(err, &gaxErr) {
		return &ProviderError{StatusCode: gaxErr.HTTPCode(), Message: gaxErr.Error()}
	}
	return err
}
