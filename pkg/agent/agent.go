// Package agent holds the chat agents of the script room and the room that
// runs conversations with them.
//
// An agent is not a process. It is a named system instruction plus the slash
// commands its instruction understands. Every turn is one streamed chat call
// through a provider.Provider.
package agent

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

//go:embed agents.yaml
var builtinYAML []byte

// Command is a slash command understood by an agent.
type Command struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	SubCommands []string `json:"subCommands,omitempty" yaml:"sub_commands,omitempty"`
}

// Agent is a system-instruction profile.
type Agent struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Instruction string    `json:"-" yaml:"instruction"`
	Commands    []Command `json:"commands" yaml:"commands"`
}

// Roster is an ordered, read-only set of agents.
type Roster struct {
	agents []Agent
	byID   map[string]int
}

// Builtin returns the built-in roster.
func Builtin() *Roster {
	r, err := ParseRoster(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("agent: invalid built-in roster: %v", err))
	}
	return r
}

// LoadRoster reads a roster file.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("agent: read roster: %w", err)
	}
	return ParseRoster(data)
}

// ParseRoster parses a YAML roster:
//
//	agents:
//	  - id: angle
//	    name: Точка Зрения
//	    instruction: |
//	      ...
//	    commands:
//	      - name: /idea
func ParseRoster(data []byte) (*Roster, error) {
	var doc struct {
		Agents []Agent `yaml:"agents"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("agent: unmarshal roster: %w", err)
	}
	return NewRoster(doc.Agents...)
}

// NewRoster builds a roster. Agent ids must be non-empty and unique.
func NewRoster(agents ...Agent) (*Roster, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("agent: roster is empty")
	}
	r := &Roster{byID: make(map[string]int, len(agents))}
	for _, a := range agents {
		a.ID = strings.TrimSpace(a.ID)
		if a.ID == "" {
			return nil, fmt.Errorf("agent: agent %q has no id", a.Name)
		}
		if _, dup := r.byID[a.ID]; dup {
			return nil, fmt.Errorf("agent: duplicate agent id %q", a.ID)
		}
		r.byID[a.ID] = len(r.agents)
		r.agents = append(r.agents, a)
	}
	return r, nil
}

// Get returns the agent with the given id.
func (r *Roster) Get(id string) (Agent, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Agent{}, false
	}
	return r.agents[i], true
}

// List returns the agents in roster order.
func (r *Roster) List() []Agent {
	out := make([]Agent, len(r.agents))
	copy(out, r.agents)
	return out
}

// IDs returns the agent ids in roster order.
func (r *Roster) IDs() []string {
	ids := make([]string, len(r.agents))
	for i, a := range r.agents {
		ids[i] = a.ID
	}
	return ids
}
