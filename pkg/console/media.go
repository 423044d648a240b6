package console

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/haivivi/mediaforge/pkg/audio/wav"
	"github.com/haivivi/mediaforge/pkg/encoding"
	"github.com/haivivi/mediaforge/pkg/provider"
	"github.com/haivivi/mediaforge/pkg/storage"
	"github.com/haivivi/mediaforge/pkg/workspace"
)

// locationHeader carries the export location of a binary response.
const locationHeader = "X-Artifact-Location"

type structureRequest struct {
	Text string `json:"text"`
}

type structureResponse struct {
	Text       string           `json:"text"`
	Scenes     []provider.Scene `json:"scenes,omitempty"`
	ParseError string           `json:"parseError,omitempty"`
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	var req structureRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, badRequest("text is required"))
		return
	}
	var sb strings.Builder
	if err := s.provider.StructureText(r.Context(), req.Text, func(frag string) {
		sb.WriteString(frag)
	}); err != nil {
		writeError(w, err)
		return
	}
	resp := structureResponse{Text: sb.String()}
	scenes, err := workspace.ParseScenes(resp.Text)
	if err != nil {
		resp.ParseError = err.Error()
	} else {
		resp.Scenes = scenes
	}
	writeJSON(w, http.StatusOK, resp)
}

type editImageRequest struct {
	Image       encoding.Media `json:"image"`
	Instruction string         `json:"instruction"`
}

type mediaResponse struct {
	URI      string `json:"uri"`
	Location string `json:"location,omitempty"`
}

func (s *Server) handleEditImage(w http.ResponseWriter, r *http.Request) {
	var req editImageRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Image.Data) == 0 || strings.TrimSpace(req.Instruction) == "" {
		writeError(w, badRequest("image and instruction are required"))
		return
	}
	uri, err := s.provider.EditImage(r.Context(), req.Image.Data, mediaType(req.Image), req.Instruction)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := mediaResponse{URI: uri}
	if m, ok := encoding.MediaFromDataURI(uri); ok {
		resp.Location = s.save(r.Context(), storage.KindImage, m.MIMEType, m.Data)
	}
	writeJSON(w, http.StatusOK, resp)
}

type videoRequest struct {
	Instruction string         `json:"instruction"`
	Image       encoding.Media `json:"image"`
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Image.Data) == 0 {
		writeError(w, badRequest("image is required"))
		return
	}
	uri, err := s.provider.GenerateVideo(r.Context(), req.Instruction, req.Image.Data, mediaType(req.Image))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mediaResponse{URI: uri})
}

type speechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// handleSpeech streams speech from the provider, reassembles it and answers
// with the playable audio.
func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, badRequest("text is required"))
		return
	}
	voice := req.Voice
	if voice == "" {
		voice = s.defaultVoice
	}
	if !provider.IsVoice(voice) {
		writeError(w, badRequest("unknown voice "+strconv.Quote(voice)))
		return
	}

	var (
		mimeType  string
		fragments [][]byte
	)
	err := s.provider.SynthesizeSpeech(r.Context(), req.Text, voice, func(c provider.AudioChunk) {
		if mimeType == "" {
			mimeType = c.MIMEType
		}
		fragments = append(fragments, c.Data)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	var opts []wav.Option
	if s.sampleRate > 0 {
		opts = append(opts, wav.WithSampleRate(s.sampleRate))
	}
	audio, audioType, err := wav.Assemble(mimeType, fragments, opts...)
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Debug("console: speech", "voice", voice, "fragments", len(fragments), "bytes", len(audio))

	if loc := s.save(r.Context(), storage.KindAudio, audioType, audio); loc != "" {
		w.Header().Set(locationHeader, loc)
	}
	w.Header().Set("Content-Type", audioType)
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

// save exports an artifact when an export store is configured. Export
// failures are logged and do not fail the request.
func (s *Server) save(ctx context.Context, kind, mimeType string, data []byte) string {
	if s.export == nil {
		return ""
	}
	p := storage.ArtifactPath(kind, uuid.NewString(), mimeType, s.now())
	loc, err := storage.Save(ctx, s.export, p, mimeType, data)
	if err != nil {
		slog.Warn("console: export artifact", "kind", kind, "error", err)
		return ""
	}
	return loc
}

// mediaType returns m's MIME type, sniffing the bytes when it is unset.
func mediaType(m encoding.Media) string {
	if m.MIMEType != "" {
		return m.MIMEType
	}
	return http.DetectContentType(m.Data)
}
