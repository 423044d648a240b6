package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
)

// ErrMalformedFrame reports a payload that is not a valid chunk. It is only
// ever logged by Deltas and ReadDeltas.
var ErrMalformedFrame = errors.New("sse: malformed frame")

// StreamError is an error object reported by the upstream inside the stream.
type StreamError struct {
	Code    any    `json:"code,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Code != nil {
		return fmt.Sprintf("sse: stream error: %s (code=%v)", e.Message, e.Code)
	}
	return "sse: stream error: " + e.Message
}

// Segment is one typed element of a list-shaped delta content.
type Segment struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// chunk is the subset of a chat completion chunk the decoder reads.
type chunk struct {
	Choices []struct {
		Delta struct {
			Content json.RawMessage `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *StreamError `json:"error,omitempty"`
}

// ParseDelta extracts the text fragments carried by one payload.
//
// The content of the first choice may be a plain string or a list of
// segments; only segments of type "output_text" or "text" contribute text.
// A chunk without content yields no fragments and no error.
func ParseDelta(payload []byte) ([]string, error) {
	var c chunk
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if c.Error != nil {
		return nil, c.Error
	}
	if len(c.Choices) == 0 {
		return nil, nil
	}
	raw := c.Choices[0].Delta.Content
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		if s == "" {
			return nil, nil
		}
		return []string{s}, nil
	case '[':
		var segs []Segment
		if err := json.Unmarshal(raw, &segs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		var out []string
		for _, seg := range segs {
			if seg.Type != "output_text" && seg.Type != "text" {
				continue
			}
			if seg.Text != "" {
				out = append(out, seg.Text)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unexpected content %s", ErrMalformedFrame, raw)
	}
}

// Deltas returns an iterator over the text fragments of an event stream.
//
// Iteration ends at the [DONE] marker or at EOF. A read failure or an error
// object reported by the upstream is yielded once as the final element.
// Malformed payloads are logged and skipped.
func Deltas(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		sc := NewScanner(r)
		frames := 0
		for sc.Next() {
			frames++
			texts, err := ParseDelta(sc.Data())
			if err != nil {
				if errors.Is(err, ErrMalformedFrame) {
					slog.Warn("sse: skip frame", "frame", frames, "error", err)
					continue
				}
				yield("", err)
				return
			}
			for _, text := range texts {
				if !yield(text, nil) {
					return
				}
			}
		}
		if err := sc.Err(); err != nil {
			yield("", fmt.Errorf("sse: read stream: %w", err))
			return
		}
		slog.Debug("sse: stream finished", "frames", frames)
	}
}

// ReadDeltas decodes r and calls sink with each text fragment in arrival
// order. Fragments already delivered stay delivered when an error is
// returned.
func ReadDeltas(r io.Reader, sink func(string)) error {
	for text, err := range Deltas(r) {
		if err != nil {
			return err
		}
		sink(text)
	}
	return nil
}
