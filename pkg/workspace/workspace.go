package workspace

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/mediaforge/pkg/kv"
)

// ErrNotFound is returned for an unknown project or scene.
var ErrNotFound = errors.New("workspace: not found")

const projectPrefix = "project"

// Workspace stores projects. It is safe for concurrent use.
type Workspace struct {
	kv  kv.Store
	now func() time.Time

	mu sync.Mutex // serializes read-modify-write
}

// New returns a workspace over s.
func New(s kv.Store) *Workspace {
	return &Workspace{kv: s, now: time.Now}
}

func projectKey(id string) kv.Key {
	return kv.Key{projectPrefix, id}
}

// Create stores a new empty project.
func (w *Workspace) Create(ctx context.Context, title, rawScript string) (*Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("workspace: project title is empty")
	}
	now := w.now().UTC()
	p := &Project{
		ID:        uuid.NewString(),
		Title:     title,
		RawScript: rawScript,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := w.put(ctx, p); err != nil {
		return nil, err
	}
	slog.Debug("workspace: project created", "id", p.ID, "title", title)
	return p, nil
}

// Get returns a project.
func (w *Workspace) Get(ctx context.Context, id string) (*Project, error) {
	data, err := w.kv.Get(ctx, projectKey(id))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var p Project
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("workspace: decode project %s: %w", id, err)
	}
	return &p, nil
}

// List returns every project, oldest first.
func (w *Workspace) List(ctx context.Context) ([]Project, error) {
	var out []Project
	for e, err := range w.kv.List(ctx, kv.Key{projectPrefix}) {
		if err != nil {
			return nil, err
		}
		var p Project
		if err := msgpack.Unmarshal(e.Value, &p); err != nil {
			slog.Warn("workspace: skip undecodable project", "key", e.Key.String(), "error", err)
			continue
		}
		out = append(out, p)
	}
	slices.SortStableFunc(out, func(a, b Project) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.Title, b.Title))
	})
	return out, nil
}

// Delete removes a project. Deleting a missing project is not an error.
func (w *Workspace) Delete(ctx context.Context, id string) error {
	return w.kv.Delete(ctx, projectKey(id))
}

// ImportScenes replaces the scenes of a project with the ones parsed from
// structured text. rawScript, when non-empty, replaces the stored script.
func (w *Workspace) ImportScenes(ctx context.Context, projectID, rawScript, structured string) (*Project, error) {
	parsed, err := ParseScenes(structured)
	if err != nil {
		return nil, err
	}
	return w.update(ctx, projectID, func(p *Project) error {
		if rawScript != "" {
			p.RawScript = rawScript
		}
		p.Scenes = newScenes(parsed)
		return nil
	})
}

// SetBaseImage sets the picture a scene starts from. The edited image and
// the video derived from the previous picture are cleared.
func (w *Workspace) SetBaseImage(ctx context.Context, projectID, sceneID string, img Image) (*Project, error) {
	return w.updateScene(ctx, projectID, sceneID, func(s *Scene) {
		s.BaseImage = &img
		s.GeneratedImage = ""
		s.VideoURL = ""
	})
}

// SetGeneratedImage stores the edited image of a scene and clears its video.
func (w *Workspace) SetGeneratedImage(ctx context.Context, projectID, sceneID, uri string) (*Project, error) {
	return w.updateScene(ctx, projectID, sceneID, func(s *Scene) {
		s.GeneratedImage = uri
		s.VideoURL = ""
	})
}

// SetVideo stores the generated video reference of a scene.
func (w *Workspace) SetVideo(ctx context.Context, projectID, sceneID, url string) (*Project, error) {
	return w.updateScene(ctx, projectID, sceneID, func(s *Scene) {
		s.VideoURL = url
	})
}

// AddVoiceover records a take at the head of the scene's history.
func (w *Workspace) AddVoiceover(ctx context.Context, projectID, sceneID, url, voice string) (*Take, error) {
	take := Take{ID: uuid.NewString(), URL: url, Voice: voice, CreatedAt: w.now().UTC()}
	_, err := w.updateScene(ctx, projectID, sceneID, func(s *Scene) {
		s.Voiceovers = slices.Insert(s.Voiceovers, 0, take)
	})
	if err != nil {
		return nil, err
	}
	return &take, nil
}

func (w *Workspace) updateScene(ctx context.Context, projectID, sceneID string, fn func(*Scene)) (*Project, error) {
	return w.update(ctx, projectID, func(p *Project) error {
		s, ok := p.Scene(sceneID)
		if !ok {
			return fmt.Errorf("%w: scene %s in project %s", ErrNotFound, sceneID, projectID)
		}
		fn(s)
		return nil
	})
}

func (w *Workspace) update(ctx context.Context, id string, fn func(*Project) error) (*Project, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, err := w.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = w.now().UTC()
	if err := w.put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (w *Workspace) put(ctx context.Context, p *Project) error {
	data, err := msgpack.Marshal(p)
	if err != nil {
		return fmt.Errorf("workspace: encode project: %w", err)
	}
	return w.kv.Set(ctx, projectKey(p.ID), data)
}
