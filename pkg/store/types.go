package store

import (
	"github.com/haivivi/mediaforge/pkg/jsontime"
)

// ItemType is the closed set of pipeline stages a process item can capture.
type ItemType string

const (
	TypeTopic        ItemType = "topic"
	TypeDeepResearch ItemType = "deep_research"
	TypeResearch     ItemType = "research"
	TypeScript       ItemType = "script"
	TypePrompt       ItemType = "prompt"
)

// ItemTypes lists every item type in display precedence.
var ItemTypes = []ItemType{TypeTopic, TypeDeepResearch, TypeResearch, TypeScript, TypePrompt}

// Valid reports whether t is one of ItemTypes.
func (t ItemType) Valid() bool {
	return t.Rank() >= 0
}

// Rank returns the display precedence of t, or -1 for an unknown type.
func (t ItemType) Rank() int {
	for i, v := range ItemTypes {
		if v == t {
			return i
		}
	}
	return -1
}

// ProcessItem is a curated snapshot of one pipeline stage's output.
type ProcessItem struct {
	ID            string             `json:"id" yaml:"id"`
	CreatedAt     jsontime.Timestamp `json:"createdAt" yaml:"created_at"`
	Title         string             `json:"title" yaml:"title"`
	Content       string             `json:"content" yaml:"content"`
	SourceAgentID string             `json:"sourceAgentId" yaml:"source_agent_id"`
	Type          ItemType           `json:"type" yaml:"type"`
	Archived      bool               `json:"isArchived" yaml:"is_archived"`
	ScenarioID    string             `json:"scenarioId,omitempty" yaml:"scenario_id,omitempty"`
	ScenarioTitle string             `json:"scenarioTitle,omitempty" yaml:"scenario_title,omitempty"`
}

// itemRow is the process_items row as PostgREST reads and writes it.
type itemRow struct {
	ID            string              `json:"id,omitempty"`
	CreatedAt     *jsontime.Timestamp `json:"created_at,omitempty"`
	Title         string              `json:"title"`
	Content       string              `json:"content"`
	SourceAgentID string              `json:"source_agent_id"`
	Type          ItemType            `json:"type"`
	Archived      bool                `json:"is_archived"`
	ScenarioID    *string             `json:"scenario_id"`
	ScenarioTitle *string             `json:"scenario_title"`
}

func toRow(it ProcessItem) itemRow {
	row := itemRow{
		ID:            it.ID,
		Title:         it.Title,
		Content:       it.Content,
		SourceAgentID: it.SourceAgentID,
		Type:          it.Type,
		Archived:      it.Archived,
		ScenarioID:    nullable(it.ScenarioID),
		ScenarioTitle: nullable(it.ScenarioTitle),
	}
	if !it.CreatedAt.IsZero() {
		ts := it.CreatedAt
		row.CreatedAt = &ts
	}
	return row
}

func (r itemRow) item() ProcessItem {
	it := ProcessItem{
		ID:            r.ID,
		Title:         r.Title,
		Content:       r.Content,
		SourceAgentID: r.SourceAgentID,
		Type:          r.Type,
		Archived:      r.Archived,
	}
	if r.CreatedAt != nil {
		it.CreatedAt = *r.CreatedAt
	}
	if r.ScenarioID != nil {
		it.ScenarioID = *r.ScenarioID
	}
	if r.ScenarioTitle != nil {
		it.ScenarioTitle = *r.ScenarioTitle
	}
	return it
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Role is the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage is one turn of an agent conversation.
type ChatMessage struct {
	Role Role   `json:"role" yaml:"role" msgpack:"role"`
	Text string `json:"text" yaml:"text" msgpack:"text"`
}

type historyRow struct {
	AgentID string        `json:"agent_id"`
	History []ChatMessage `json:"history"`
}

// ListOptions filters ListProcessItems.
type ListOptions struct {
	// IncludeArchived also returns archived items.
	IncludeArchived bool
}
