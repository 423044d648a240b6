package console

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/haivivi/mediaforge/pkg/provider"
	"github.com/haivivi/mediaforge/pkg/scenario"
	"github.com/haivivi/mediaforge/pkg/store"
)

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("archived"))
	items, err := s.store.ListProcessItems(r.Context(), store.ListOptions{IncludeArchived: all})
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []store.ProcessItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var item store.ProcessItem
	if err := decode(w, r, &item); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(item.Title) == "" {
		writeError(w, badRequest("title is required"))
		return
	}
	item.ID = ""
	created, err := s.store.AddProcessItem(r.Context(), item)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProcessItem(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type archiveRequest struct {
	IDs      []string `json:"ids"`
	Archived bool     `json:"archived"`
}

func (s *Server) handleArchiveItems(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.SetArchived(r.Context(), req.IDs, req.Archived); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListProcessItems(r.Context(), store.ListOptions{IncludeArchived: true})
	if err != nil {
		writeError(w, err)
		return
	}
	scenarios := scenario.Derive(items)
	if scenarios == nil {
		scenarios = []scenario.Scenario{}
	}
	writeJSON(w, http.StatusOK, scenarios)
}

type newScenarioRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// handleNewScenario starts a scenario with a topic item carrying its id and
// numbered title.
func (s *Server) handleNewScenario(w http.ResponseWriter, r *http.Request) {
	var req newScenarioRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, badRequest("title is required"))
		return
	}
	items, err := s.store.ListProcessItems(r.Context(), store.ListOptions{IncludeArchived: true})
	if err != nil {
		writeError(w, err)
		return
	}
	id, title := scenario.New(req.Title, items)
	content := req.Content
	if content == "" {
		content = strings.TrimSpace(req.Title)
	}
	created, err := s.store.AddProcessItem(r.Context(), store.ProcessItem{
		Title:         strings.TrimSpace(req.Title),
		Content:       content,
		Type:          store.TypeTopic,
		ScenarioID:    id,
		ScenarioTitle: title,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, scenario.Scenario{
		ID:       id,
		Title:    title,
		Sequence: sequence(title),
		Items:    []store.ProcessItem{*created},
	})
}

func sequence(title string) int {
	n, _ := scenario.ParseSequence(title)
	return n
}

func (s *Server) handleListHistories(w http.ResponseWriter, r *http.Request) {
	h, err := s.store.ListChatHistories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if h == nil {
		h = map[string][]store.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleResetHistories(w http.ResponseWriter, r *http.Request) {
	if err := s.room.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.room.Roster().List())
}

func (s *Server) handleListVoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default": s.defaultVoice,
		"voices":  provider.Voices,
	})
}
