package agent

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/haivivi/mediaforge/pkg/provider"
	"github.com/haivivi/mediaforge/pkg/store"
)

type fakeChat struct {
	fragments []string
	err       error

	history     []provider.Turn
	instruction string
}

func (f *fakeChat) StreamChat(ctx context.Context, history []provider.Turn, systemInstruction string, sink func(string)) error {
	f.history = history
	f.instruction = systemInstruction
	for _, s := range f.fragments {
		sink(s)
	}
	return f.err
}

type fakeStore struct {
	mu        sync.Mutex
	items     []store.ProcessItem
	histories map[string][]store.ChatMessage
	saves     [][]store.ChatMessage
	archived  int
	deleted   int
	saveErr   error
	addErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{histories: make(map[string][]store.ChatMessage)}
}

func (f *fakeStore) ListProcessItems(ctx context.Context, opts store.ListOptions) ([]store.ProcessItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.ProcessItem
	for _, it := range f.items {
		if opts.IncludeArchived || !it.Archived {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeStore) AddProcessItem(ctx context.Context, item store.ProcessItem) (*store.ProcessItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return nil, f.addErr
	}
	item.ID = "id-" + item.Title
	f.items = append(f.items, item)
	return &item, nil
}

func (f *fakeStore) ArchiveAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived++
	for i := range f.items {
		f.items[i].Archived = true
	}
	return nil
}

func (f *fakeStore) ListChatHistories(ctx context.Context) (map[string][]store.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string][]store.ChatMessage, len(f.histories))
	for k, v := range f.histories {
		out[k] = slices.Clone(v)
	}
	return out, nil
}

func (f *fakeStore) SaveChatHistory(ctx context.Context, agentID string, history []store.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, slices.Clone(history))
	if f.saveErr != nil {
		return f.saveErr
	}
	f.histories[agentID] = slices.Clone(history)
	return nil
}

func (f *fakeStore) DeleteAllChatHistories(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted++
	f.histories = make(map[string][]store.ChatMessage)
	return nil
}

func TestRoom_Send(t *testing.T) {
	chat := &fakeChat{fragments: []string{"При", "вет"}}
	st := newFakeStore()
	st.histories[IDMeta] = []store.ChatMessage{{Role: store.RoleUser, Text: "old"}, {Role: store.RoleModel, Text: "reply"}}
	room := NewRoom(chat, st, nil)
	ctx := context.Background()
	if err := room.Load(ctx); err != nil {
		t.Fatal(err)
	}

	var streamed []string
	reply, err := room.Send(ctx, IDMeta, "/generate", func(s string) { streamed = append(streamed, s) })
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != "Привет" || reply.Err != nil {
		t.Errorf("reply = %+v", reply)
	}
	if !slices.Equal(streamed, []string{"При", "вет"}) {
		t.Errorf("streamed = %v", streamed)
	}

	meta, _ := Builtin().Get(IDMeta)
	if chat.instruction != meta.Instruction {
		t.Error("system instruction not passed")
	}
	wantTurns := []provider.Turn{
		{Role: provider.RoleUser, Text: "old"},
		{Role: provider.RoleModel, Text: "reply"},
		{Role: provider.RoleUser, Text: "/generate"},
	}
	if !slices.Equal(chat.history, wantTurns) {
		t.Errorf("turns = %+v, want %+v", chat.history, wantTurns)
	}

	// user message saved first, then the whole history
	if len(st.saves) != 2 {
		t.Fatalf("saves = %d, want 2", len(st.saves))
	}
	if len(st.saves[0]) != 3 || st.saves[0][2].Text != "/generate" {
		t.Errorf("first save = %+v", st.saves[0])
	}
	want := append(slices.Clone(st.saves[0]), store.ChatMessage{Role: store.RoleModel, Text: "Привет"})
	if !slices.Equal(st.saves[1], want) {
		t.Errorf("second save = %+v, want %+v", st.saves[1], want)
	}
	if !slices.Equal(room.History(IDMeta), want) {
		t.Errorf("History() = %+v", room.History(IDMeta))
	}
}

func TestRoom_SendFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	chat := &fakeChat{fragments: []string{"par"}, err: boom}
	st := newFakeStore()
	room := NewRoom(chat, st, nil)

	reply, err := room.Send(context.Background(), IDPrompter, "/export", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(reply.Err, boom) {
		t.Errorf("reply.Err = %v", reply.Err)
	}
	if reply.Text != "Извините, произошла ошибка: quota exceeded" {
		t.Errorf("reply.Text = %q", reply.Text)
	}
	if reply.Proposal != nil || reply.Suggestions != nil {
		t.Error("failed turn produced suggestions")
	}
	h := st.histories[IDPrompter]
	if len(h) != 2 || h[1].Text != reply.Text {
		t.Errorf("stored history = %+v", h)
	}
}

func TestRoom_SendErrors(t *testing.T) {
	room := NewRoom(&fakeChat{}, newFakeStore(), nil)
	ctx := context.Background()

	var unknown *UnknownAgentError
	if _, err := room.Send(ctx, "ghost", "hi", nil); !errors.As(err, &unknown) || unknown.ID != "ghost" {
		t.Errorf("error = %v, want *UnknownAgentError", err)
	}
	if _, err := room.Send(ctx, IDAngle, "   ", nil); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("error = %v, want ErrEmptyMessage", err)
	}
}

func TestRoom_SaveFailureIsNotFatal(t *testing.T) {
	st := newFakeStore()
	st.saveErr = errors.New("offline")
	room := NewRoom(&fakeChat{fragments: []string{"ok"}}, st, nil)

	reply, err := room.Send(context.Background(), IDShorter, "/cut", nil)
	if err != nil || reply.Text != "ok" {
		t.Fatalf("Send() = %+v, %v", reply, err)
	}
	if len(room.History(IDShorter)) != 2 {
		t.Errorf("history = %+v", room.History(IDShorter))
	}
}

func TestRoom_ExportFlow(t *testing.T) {
	st := newFakeStore()
	st.items = []store.ProcessItem{{ID: "t", Title: "Тема", Type: store.TypeTopic}}
	room := NewRoom(&fakeChat{fragments: []string{"кадры"}}, st, nil)
	ctx := context.Background()

	reply, err := room.Send(ctx, IDPrompter, "/eat  Гении ", nil)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Proposal == nil {
		t.Fatal("no proposal")
	}
	if reply.Proposal.Title != "Визуал: Гении..." || reply.Proposal.Type != store.TypeScript {
		t.Errorf("proposal = %+v", reply.Proposal)
	}

	item, err := room.ConfirmExport(ctx, *reply.Proposal)
	if err != nil {
		t.Fatal(err)
	}
	if item == nil || item.SourceAgentID != IDPrompter || item.Content != "кадры" {
		t.Errorf("item = %+v", item)
	}
	if st.archived != 1 || st.deleted != 1 {
		t.Errorf("archived = %d, deleted = %d", st.archived, st.deleted)
	}
	for _, it := range st.items {
		if !it.Archived {
			t.Errorf("item %s not archived", it.ID)
		}
	}
	if len(room.History(IDPrompter)) != 0 {
		t.Error("history not cleared")
	}
}

func TestRoom_AddToProcessDuplicate(t *testing.T) {
	st := newFakeStore()
	st.items = []store.ProcessItem{
		{ID: "1", Title: " Казна ", Type: store.TypeTopic},
		{ID: "2", Title: "Архив", Type: store.TypeTopic, Archived: true},
	}
	room := NewRoom(&fakeChat{}, st, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		s     Suggestion
		added bool
	}{
		{"same title and type", Suggestion{Title: "Казна", Type: store.TypeTopic}, false},
		{"same title other type", Suggestion{Title: "Казна", Type: store.TypeScript}, true},
		{"archived duplicate", Suggestion{Title: "Архив", Type: store.TypeTopic}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, added, err := room.AddToProcess(ctx, IDAngle, tt.s)
			if err != nil {
				t.Fatal(err)
			}
			if added != tt.added || (item != nil) != tt.added {
				t.Errorf("AddToProcess() = %+v, %v, want added=%v", item, added, tt.added)
			}
		})
	}

	st.addErr = &store.SchemaViolationError{Enum: "process_item_type", Value: "prompt"}
	_, _, err := room.AddToProcess(ctx, IDAngle, Suggestion{Title: "new", Type: store.TypePrompt})
	if _, ok := store.AsSchemaViolation(err); !ok {
		t.Errorf("error = %v, want schema violation", err)
	}
}

func TestRoom_Reset(t *testing.T) {
	st := newFakeStore()
	room := NewRoom(&fakeChat{fragments: []string{"x"}}, st, nil)
	ctx := context.Background()
	if _, err := room.Send(ctx, IDAngle, "/idea", nil); err != nil {
		t.Fatal(err)
	}
	if err := room.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if len(room.History(IDAngle)) != 0 || len(st.histories) != 0 {
		t.Error("Reset left histories behind")
	}
}

func TestRoom_Busy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	chat := chatFunc(func(ctx context.Context, h []provider.Turn, s string, sink func(string)) error {
		close(started)
		<-release
		sink("done")
		return nil
	})
	room := NewRoom(chat, newFakeStore(), nil)
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() {
		_, err := room.Send(ctx, IDDeep, "/go", nil)
		errc <- err
	}()
	<-started
	if _, err := room.Send(ctx, IDDeep, "/go again", nil); !errors.Is(err, ErrBusy) {
		t.Errorf("error = %v, want ErrBusy", err)
	}
	close(release)
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	h := room.History(IDDeep)
	if len(h) != 2 || !strings.EqualFold(h[1].Text, "done") {
		t.Errorf("history = %+v", h)
	}
}

type chatFunc func(ctx context.Context, history []provider.Turn, systemInstruction string, sink func(string)) error

func (f chatFunc) StreamChat(ctx context.Context, history []provider.Turn, systemInstruction string, sink func(string)) error {
	return f(ctx, history, systemInstruction, sink)
}
