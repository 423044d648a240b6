package provider

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// contentPart is one element of gateway response content. Gateways disagree
// on field names, so every known variant is accepted.
type contentPart struct {
	Type      string `json:"type,omitempty"`
	Text      string `json:"text,omitempty"`
	Data      string `json:"data,omitempty"`
	MIMEType  string `json:"mime_type,omitempty"`
	MIMECamel string `json:"mimeType,omitempty"`
	URL       string `json:"url,omitempty"`
	B64JSON   string `json:"b64_json,omitempty"`
	Base64    string `json:"base64,omitempty"`
	ImageURL  *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
	Audio *struct {
		Data     string `json:"data"`
		MIMEType string `json:"mime_type"`
		Format   string `json:"format"`
	} `json:"audio,omitempty"`
}

func (p contentPart) mime() string {
	if p.MIMEType != "" {
		return p.MIMEType
	}
	return p.MIMECamel
}

// inlineBase64 returns the base64 payload carried by the part, if any.
func (p contentPart) inlineBase64() string {
	switch {
	case p.Data != "":
		return p.Data
	case p.B64JSON != "":
		return p.B64JSON
	case p.Base64 != "":
		return p.Base64
	}
	return ""
}

// partList accepts either a plain string or a list of parts.
type partList []contentPart

func (l *partList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*l = nil
		return nil
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*l = nil
			return nil
		}
		*l = partList{{Type: "output_text", Text: s}}
		return nil
	}
	var parts []contentPart
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	*l = parts
	return nil
}

// gatewayPayload is a chat completion or responses API body.
type gatewayPayload struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status,omitempty"`
	Output []struct {
		Content partList `json:"content"`
	} `json:"output,omitempty"`
	Data []struct {
		Content partList `json:"content"`
	} `json:"data,omitempty"`
	Choices []struct {
		Message struct {
			Content partList      `json:"content"`
			Images  []contentPart `json:"images,omitempty"`
			Audio   *struct {
				Data   string `json:"data"`
				Format string `json:"format"`
			} `json:"audio,omitempty"`
		} `json:"message"`
	} `json:"choices,omitempty"`
	Error *struct {
		Code    any    `json:"code,omitempty"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// pending reports whether a responses API job is still running.
func (r *gatewayPayload) pending() bool {
	return r.Status == "queued" || r.Status == "in_progress"
}

// parts flattens every content bucket in document order. An image_url
// element is normalized to a part whose URL is the image URL.
func (r *gatewayPayload) parts() []contentPart {
	var out []contentPart
	push := func(items []contentPart) {
		for _, item := range items {
			if item.ImageURL != nil && item.ImageURL.URL != "" {
				typ := item.Type
				if typ == "" {
					typ = "output_image"
				}
				out = append(out, contentPart{Type: typ, URL: item.ImageURL.URL})
				continue
			}
			out = append(out, item)
		}
	}
	for _, o := range r.Output {
		push(o.Content)
	}
	for _, d := range r.Data {
		push(d.Content)
	}
	for _, c := range r.Choices {
		push(c.Message.Content)
		push(c.Message.Images)
		if a := c.Message.Audio; a != nil && a.Data != "" {
			out = append(out, contentPart{Type: "output_audio", Data: a.Data, MIMEType: audioFormatMIME(a.Format)})
		}
	}
	return out
}

// firstText returns the first text found among parts.
func firstText(parts []contentPart) string {
	for _, p := range parts {
		if p.Text != "" {
			return p.Text
		}
	}
	return ""
}

// gatewayImage picks the first image reference from parts.
func gatewayImage(parts []contentPart, fallbackMIME string) (string, error) {
	for _, p := range parts {
		b64 := p.inlineBase64()
		isImage := p.Type == "output_image" || p.Type == "image" || p.Type == "image_url"
		if !isImage && b64 == "" && !strings.HasPrefix(p.URL, "data:image/") {
			continue
		}
		if strings.HasPrefix(p.URL, "http") || strings.HasPrefix(p.URL, "data:") {
			return p.URL, nil
		}
		if b64 != "" {
			mime := p.mime()
			if mime == "" {
				mime = fallbackMIME
			}
			return "data:" + mime + ";base64," + b64, nil
		}
	}
	return "", &NoImageReturnedError{Text: firstText(parts)}
}

// gatewayVideo picks the first video reference from parts.
func gatewayVideo(parts []contentPart) (string, error) {
	for _, p := range parts {
		if p.Type != "output_video" && p.Type != "video" {
			continue
		}
		if p.URL != "" {
			return p.URL, nil
		}
		if b64 := p.inlineBase64(); b64 != "" {
			mime := p.mime()
			if mime == "" {
				mime = "video/mp4"
			}
			return "data:" + mime + ";base64," + b64, nil
		}
	}
	return "", &NoVideoReturnedError{Text: firstText(parts)}
}

// gatewayAudio decodes every audio part in order.
func gatewayAudio(parts []contentPart) ([]AudioChunk, error) {
	var chunks []AudioChunk
	for _, p := range parts {
		var b64, mime string
		switch {
		case p.Audio != nil && p.Audio.Data != "":
			b64, mime = p.Audio.Data, p.Audio.MIMEType
			if mime == "" {
				mime = audioFormatMIME(p.Audio.Format)
			}
		case p.Type == "output_audio" || p.Type == "audio":
			b64, mime = p.inlineBase64(), p.mime()
		}
		if b64 == "" || mime == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("provider: decode audio part: %w", err)
		}
		chunks = append(chunks, AudioChunk{Data: data, MIMEType: mime})
	}
	return chunks, nil
}

// audioFormatMIME maps OpenAI audio format names onto MIME types.
func audioFormatMIME(format string) string {
	switch format {
	case "":
		return ""
	case "pcm16":
		return "audio/L16;rate=24000"
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "opus":
		return "audio/ogg;codecs=opus"
	case "flac":
		return "audio/flac"
	case "aac":
		return "audio/aac"
	}
	return "audio/" + format
}
