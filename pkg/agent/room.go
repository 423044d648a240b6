package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/haivivi/mediaforge/pkg/provider"
	"github.com/haivivi/mediaforge/pkg/store"
)

// ErrEmptyMessage is returned by Send for blank input.
var ErrEmptyMessage = errors.New("agent: message is empty")

// ErrBusy is returned by Send while the same agent is still replying.
var ErrBusy = errors.New("agent: agent is still replying")

// UnknownAgentError is returned for an id that is not in the roster.
type UnknownAgentError struct {
	ID string
}

func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("agent: unknown agent %q", e.ID)
}

// errorPrefix starts the model text of a failed turn.
const errorPrefix = "Извините, произошла ошибка: "

// Chatter streams one model turn. provider.Provider satisfies it.
type Chatter interface {
	StreamChat(ctx context.Context, history []provider.Turn, systemInstruction string, sink func(string)) error
}

// Store is the part of *store.Client the room uses.
type Store interface {
	ListProcessItems(ctx context.Context, opts store.ListOptions) ([]store.ProcessItem, error)
	AddProcessItem(ctx context.Context, item store.ProcessItem) (*store.ProcessItem, error)
	ArchiveAll(ctx context.Context) error
	ListChatHistories(ctx context.Context) (map[string][]store.ChatMessage, error)
	SaveChatHistory(ctx context.Context, agentID string, history []store.ChatMessage) error
	DeleteAllChatHistories(ctx context.Context) error
}

// Reply is the outcome of one Send.
type Reply struct {
	AgentID string `json:"agentId"`

	// Text is the final model text. For a failed turn it is the apology
	// that was stored in place of the reply.
	Text string `json:"text"`

	// Err is the streaming error of a failed turn.
	Err error `json:"-"`

	// Suggestions are parts of the reply that can be added to the process
	// list.
	Suggestions []Suggestion `json:"suggestions,omitempty"`

	// Proposal is set when the reply completes the pipeline; see
	// Room.ConfirmExport.
	Proposal *Suggestion `json:"proposal,omitempty"`
}

// Room keeps one conversation per agent, persists them to a Store and streams
// replies through a Chatter. It is safe for concurrent use; different agents
// can reply at the same time.
type Room struct {
	chat   Chatter
	store  Store
	roster *Roster

	mu        sync.Mutex
	histories map[string][]store.ChatMessage
	busy      map[string]bool
}

// NewRoom creates a room. Call Load to restore persisted histories.
func NewRoom(chat Chatter, s Store, roster *Roster) *Room {
	if roster == nil {
		roster = Builtin()
	}
	return &Room{
		chat:      chat,
		store:     s,
		roster:    roster,
		histories: make(map[string][]store.ChatMessage),
		busy:      make(map[string]bool),
	}
}

// Roster returns the room's agents.
func (r *Room) Roster() *Roster {
	return r.roster
}

// Load replaces the in-memory histories with the persisted ones.
func (r *Room) Load(ctx context.Context) error {
	h, err := r.store.ListChatHistories(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histories = h
	if r.histories == nil {
		r.histories = make(map[string][]store.ChatMessage)
	}
	return nil
}

// History returns a copy of the conversation with agentID.
func (r *Room) History(agentID string) []store.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.histories[agentID]
	out := make([]store.ChatMessage, len(h))
	copy(out, h)
	return out
}

// Send runs one turn with agentID. The user message is persisted before the
// model is called; the model message is created empty, filled by streaming
// and persisted with the whole history once the stream ends. fragments
// receives each streamed piece in order and may be nil.
//
// A failed stream is not returned as an error. The model message is replaced
// by an apology carrying the error and the Reply's Err is set. Errors are
// returned only for input that never reached the model.
func (r *Room) Send(ctx context.Context, agentID, text string, fragments func(string)) (*Reply, error) {
	a, ok := r.roster.Get(agentID)
	if !ok {
		return nil, &UnknownAgentError{ID: agentID}
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	r.mu.Lock()
	if r.busy[agentID] {
		r.mu.Unlock()
		return nil, ErrBusy
	}
	r.busy[agentID] = true
	history := append(r.histories[agentID], store.ChatMessage{Role: store.RoleUser, Text: text})
	r.histories[agentID] = history
	snapshot := cloneMessages(history)
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.busy, agentID)
		r.mu.Unlock()
	}()

	r.save(ctx, agentID, snapshot)

	r.mu.Lock()
	r.histories[agentID] = append(r.histories[agentID], store.ChatMessage{Role: store.RoleModel})
	modelIndex := len(r.histories[agentID]) - 1
	r.mu.Unlock()

	turns := make([]provider.Turn, len(snapshot))
	for i, m := range snapshot {
		turns[i] = provider.Turn{Role: provider.Role(m.Role), Text: m.Text}
	}
	slog.Debug("agent: send", "agent", agentID, "turns", len(turns))

	err := r.chat.StreamChat(ctx, turns, a.Instruction, func(s string) {
		r.mu.Lock()
		if h := r.histories[agentID]; modelIndex < len(h) {
			h[modelIndex].Text += s
		}
		r.mu.Unlock()
		if fragments != nil {
			fragments(s)
		}
	})

	r.mu.Lock()
	h := r.histories[agentID]
	if modelIndex >= len(h) {
		// Reset ran while the reply was streaming.
		r.mu.Unlock()
		return &Reply{AgentID: agentID, Err: err}, nil
	}
	if err != nil {
		h[modelIndex].Text = errorPrefix + err.Error()
	}
	reply := &Reply{AgentID: agentID, Text: h[modelIndex].Text, Err: err}
	final := cloneMessages(h)
	r.mu.Unlock()

	r.save(ctx, agentID, final)

	if err == nil {
		reply.Suggestions = Suggest(agentID, text, reply.Text)
		if p, ok := ExportProposal(agentID, text, reply.Text); ok {
			reply.Proposal = &p
		}
	}
	return reply, nil
}

// save persists a history. A failed save is logged; the conversation goes on.
func (r *Room) save(ctx context.Context, agentID string, history []store.ChatMessage) {
	if err := r.store.SaveChatHistory(ctx, agentID, history); err != nil {
		slog.Warn("agent: save chat history", "agent", agentID, "error", err)
	}
}

// AddToProcess stores s as a process item authored by agentID. It returns
// added=false without writing when an active item with the same trimmed
// title and type already exists.
func (r *Room) AddToProcess(ctx context.Context, agentID string, s Suggestion) (item *store.ProcessItem, added bool, err error) {
	items, err := r.store.ListProcessItems(ctx, store.ListOptions{})
	if err != nil {
		return nil, false, err
	}
	title := strings.TrimSpace(s.Title)
	for _, it := range items {
		if strings.TrimSpace(it.Title) == title && it.Type == s.Type {
			slog.Warn("agent: process item already exists", "title", title, "type", s.Type)
			return nil, false, nil
		}
	}
	item, err = r.store.AddProcessItem(ctx, s.Item(agentID))
	if err != nil {
		return nil, false, err
	}
	return item, true, nil
}

// ConfirmExport finishes a pipeline: it adds the proposal to the process
// list, archives every active item and clears all conversations.
func (r *Room) ConfirmExport(ctx context.Context, proposal Suggestion) (*store.ProcessItem, error) {
	item, _, err := r.AddToProcess(ctx, IDPrompter, proposal)
	if err != nil {
		return nil, err
	}
	if err := r.store.ArchiveAll(ctx); err != nil {
		return item, err
	}
	return item, r.Reset(ctx)
}

// Reset deletes every persisted conversation and clears the room.
func (r *Room) Reset(ctx context.Context) error {
	if err := r.store.DeleteAllChatHistories(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	r.histories = make(map[string][]store.ChatMessage)
	r.mu.Unlock()
	return nil
}

func cloneMessages(h []store.ChatMessage) []store.ChatMessage {
	out := make([]store.ChatMessage, len(h))
	copy(out, h)
	return out
}
