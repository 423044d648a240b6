package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/haivivi/mediaforge/pkg/sse"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
)

var _ Provider = (*Gateway)(nil)

// Gateway is the backend for OpenAI-compatible HTTP gateways. Text is
// streamed from the chat completions endpoint; video and speech go through
// the responses endpoint.
type Gateway struct {
	config *clientConfig
	http   *httpClient
}

// NewGateway creates a gateway backend. An empty apiKey is accepted; every
// operation then fails with *ConfigurationError.
func NewGateway(apiKey string, opts ...Option) *Gateway {
	cfg := newClientConfig(apiKey, DefaultGatewayModels, opts)
	if cfg.baseURL == "" {
		cfg.baseURL = DefaultGatewayBaseURL
	}
	return &Gateway{config: cfg, http: newHTTPClient(cfg)}
}

// Models returns the resolved model identifiers.
func (g *Gateway) Models() Models {
	return g.config.models
}

func (g *Gateway) checkConfig() error {
	if g.config.apiKey == "" {
		return &ConfigurationError{Backend: BackendGateway, Setting: "api key"}
	}
	return nil
}

// StructureText implements Provider.
func (g *Gateway) StructureText(ctx context.Context, rawText string, sink func(string)) error {
	if err := g.checkConfig(); err != nil {
		return err
	}
	params := openai.ChatCompletionNewParams{
		Model: g.config.models.Structure,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(structureSystemPrompt),
			openai.UserMessage(structurePrompt(rawText)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        scriptSchemaName,
					Description: param.NewOpt(scriptSchemaDescription),
					Schema:      strictSchema(ScriptSchema()),
					Strict:      param.NewOpt(true),
				},
			},
		},
	}
	slog.Debug("provider: structure text", "backend", BackendGateway, "model", params.Model, "bytes", len(rawText))
	return g.streamChat(ctx, params, sink)
}

// StreamChat implements Provider.
func (g *Gateway) StreamChat(ctx context.Context, history []Turn, systemInstruction string, sink func(string)) error {
	if err := g.checkConfig(); err != nil {
		return err
	}
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	if systemInstruction != "" {
		msgs = append(msgs, openai.SystemMessage(systemInstruction))
	}
	for _, t := range history {
		if t.Text == "" {
			continue
		}
		if t.Role == RoleModel {
			msgs = append(msgs, openai.AssistantMessage(t.Text))
		} else {
			msgs = append(msgs, openai.UserMessage(t.Text))
		}
	}
	params := openai.ChatCompletionNewParams{
		Model:    g.config.models.Chat,
		Messages: msgs,
	}
	slog.Debug("provider: stream chat", "backend", BackendGateway, "model", params.Model, "turns", len(history))
	return g.streamChat(ctx, params, sink)
}

func (g *Gateway) streamChat(ctx context.Context, params openai.ChatCompletionNewParams, sink func(string)) error {
	params.SetExtraFields(map[string]any{"stream": true})
	resp, err := g.http.requestStream(ctx, "/chat/completions", params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return sse.ReadDeltas(resp.Body, sink)
}

// EditImage implements Provider.
func (g *Gateway) EditImage(ctx context.Context, image []byte, mimeType, instruction string) (string, error) {
	if err := g.checkConfig(); err != nil {
		return "", err
	}
	params := openai.ChatCompletionNewParams{
		Model: g.config.models.Image,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(instruction),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: DataURI(mimeType, image),
				}),
			}),
		},
	}
	params.Modalities = []string{"image", "text"}

	slog.Debug("provider: edit image", "backend", BackendGateway, "model", params.Model, "bytes", len(image))
	var resp gatewayPayload
	if err := g.http.request(ctx, http.MethodPost, "/chat/completions", params, &resp); err != nil {
		return "", err
	}
	return gatewayImage(resp.parts(), mimeType)
}

// GenerateVideo implements Provider.
func (g *Gateway) GenerateVideo(ctx context.Context, instruction string, image []byte, mimeType string) (string, error) {
	if err := g.checkConfig(); err != nil {
		return "", err
	}
	if g.config.videoTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.videoTimeout)
		defer cancel()
	}

	content := responses.ResponseInputMessageContentListParam{
		responses.ResponseInputContentParamOfInputText(instruction),
	}
	if len(image) > 0 {
		img := responses.ResponseInputContentParamOfInputImage(responses.ResponseInputImageDetailAuto)
		img.OfInputImage.ImageURL = param.NewOpt(DataURI(mimeType, image))
		content = append(content, img)
	}
	resp, err := g.respond(ctx, "video", g.config.models.Video, content)
	if err != nil {
		return "", err
	}
	if resp.Status == "failed" || resp.Status == "cancelled" {
		e := &VideoGenerationError{Code: resp.Status, Message: "job " + resp.Status}
		if resp.Error != nil {
			e.Message = resp.Error.Message
			if resp.Error.Code != nil {
				e.Code = fmt.Sprint(resp.Error.Code)
			}
		}
		return "", e
	}
	return gatewayVideo(resp.parts())
}

// SynthesizeSpeech implements Provider.
func (g *Gateway) SynthesizeSpeech(ctx context.Context, text, voice string, sink func(AudioChunk)) error {
	if err := g.checkConfig(); err != nil {
		return err
	}
	content := responses.ResponseInputMessageContentListParam{
		responses.ResponseInputContentParamOfInputText(text),
		responses.ResponseInputContentParamOfInputText("Voice: " + voice),
	}
	resp, err := g.respond(ctx, "speech", g.config.models.Speech, content)
	if err != nil {
		return err
	}
	parts := resp.parts()
	chunks, err := gatewayAudio(parts)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return &NoAudioReturnedError{Text: firstText(parts)}
	}
	for _, c := range chunks {
		sink(c)
	}
	slog.Debug("provider: speech finished", "backend", BackendGateway, "voice", voice, "chunks", len(chunks))
	return nil
}

// respond creates a response and polls it while the gateway reports it as
// queued or in progress.
func (g *Gateway) respond(ctx context.Context, name, model string, content responses.ResponseInputMessageContentListParam) (*gatewayPayload, error) {
	params := responses.ResponseNewParams{
		Model: model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(content, responses.EasyInputMessageRoleUser),
			},
		},
	}
	var first gatewayPayload
	if err := g.http.request(ctx, http.MethodPost, "/responses", params, &first); err != nil {
		return nil, err
	}
	slog.Debug("provider: response created", "backend", BackendGateway, "job", name, "model", model, "id", first.ID, "status", first.Status)
	if first.pending() && first.ID == "" {
		return nil, fmt.Errorf("provider: gateway reported a %s response without an id", first.Status)
	}

	return waitJob(ctx, name, responseState(&first), g.config.pollInterval, func(ctx context.Context) (jobState[*gatewayPayload], error) {
		var next gatewayPayload
		if err := g.http.request(ctx, http.MethodGet, "/responses/"+url.PathEscape(first.ID), nil, &next); err != nil {
			return jobState[*gatewayPayload]{}, err
		}
		return responseState(&next), nil
	})
}

func responseState(r *gatewayPayload) jobState[*gatewayPayload] {
	return jobState[*gatewayPayload]{done: !r.pending(), result: r}
}
