package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"

	"github.com/haivivi/mediaforge/pkg/provider"
)

// ErrNoScenes is returned by ParseScenes when the text holds no scene.
var ErrNoScenes = errors.New("workspace: no scenes in structured text")

// ParseScenes decodes the text streamed by Provider.StructureText. Code
// fences around the JSON are ignored, a bare scene array is accepted, and a
// truncated document is repaired before decoding. Scenes without script are
// dropped.
func ParseScenes(text string) ([]provider.Scene, error) {
	body := strings.TrimSpace(stripFence(text))
	if i := strings.IndexAny(body, "{["); i > 0 {
		body = body[i:]
	}
	if body == "" {
		return nil, ErrNoScenes
	}

	var scenes []provider.Scene
	if body[0] == '[' {
		if err := unmarshalJSON([]byte(body), &scenes); err != nil {
			return nil, fmt.Errorf("workspace: parse scenes: %w", err)
		}
	} else {
		var doc provider.ScriptDocument
		if err := unmarshalJSON([]byte(body), &doc); err != nil {
			return nil, fmt.Errorf("workspace: parse scenes: %w", err)
		}
		scenes = doc.Scenes
	}

	out := scenes[:0]
	for _, s := range scenes {
		s.Script = strings.TrimSpace(s.Script)
		if s.Script != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoScenes
	}
	return out, nil
}

// newScenes turns parsed scenes into workspace scenes. Model ids are kept
// when present and unique; the rest get a uuid.
func newScenes(parsed []provider.Scene) []Scene {
	seen := make(map[string]bool, len(parsed))
	out := make([]Scene, len(parsed))
	for i, p := range parsed {
		id := strings.TrimSpace(p.ID)
		if id == "" || seen[id] {
			id = uuid.NewString()
		}
		seen[id] = true
		out[i] = Scene{ID: id, Script: p.Script}
	}
	return out
}

func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	var syntax *json.SyntaxError
	if !errors.As(err, &syntax) {
		return err
	}
	fixed, rerr := jsonrepair.JSONRepair(string(data))
	if rerr != nil {
		return err
	}
	return json.Unmarshal([]byte(fixed), v)
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	rest, ok := strings.CutPrefix(s, "```")
	if !ok {
		return s
	}
	// drop the info string, e.g. ```json
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[i+1:]
	} else {
		rest = ""
	}
	rest = strings.TrimSpace(rest)
	rest, _ = strings.CutSuffix(rest, "```")
	return rest
}
