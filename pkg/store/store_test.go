package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/haivivi/mediaforge/pkg/jsontime"
)

type recorded struct {
	method string
	path   string
	query  map[string][]string
	header http.Header
	body   []byte
}

// newServer returns a client bound to a server that records each request and
// replies with status and body.
func newServer(t *testing.T, status int, body string) (*Client, *[]recorded) {
	t.Helper()
	var reqs []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		reqs = append(reqs, recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.Query(),
			header: r.Header.Clone(),
			body:   data,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "anon-key"), &reqs
}

const rowsJSON = `[
	{"id":"a1","created_at":"2025-10-10T12:00:00.5+00:00","title":"Topic","content":"c1","source_agent_id":"angle","type":"topic","is_archived":false,"scenario_id":null,"scenario_title":null},
	{"id":"b2","created_at":"2025-10-10T12:05:00+00:00","title":"Script","content":"c2","source_agent_id":"scripter","type":"script","is_archived":true,"scenario_id":"s1","scenario_title":"1. Night"}
]`

func TestListProcessItems(t *testing.T) {
	c, reqs := newServer(t, 200, rowsJSON)

	items, err := c.ListProcessItems(context.Background(), ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := []ProcessItem{
		{
			ID:            "a1",
			CreatedAt:     jsontime.Timestamp(time.Date(2025, 10, 10, 12, 0, 0, 500000000, time.UTC)),
			Title:         "Topic",
			Content:       "c1",
			SourceAgentID: "angle",
			Type:          TypeTopic,
		},
		{
			ID:            "b2",
			CreatedAt:     jsontime.Timestamp(time.Date(2025, 10, 10, 12, 5, 0, 0, time.UTC)),
			Title:         "Script",
			Content:       "c2",
			SourceAgentID: "scripter",
			Type:          TypeScript,
			Archived:      true,
			ScenarioID:    "s1",
			ScenarioTitle: "1. Night",
		},
	}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i := range want {
		got := items[i]
		if !got.CreatedAt.Time().Equal(want[i].CreatedAt.Time()) {
			t.Errorf("item %d CreatedAt = %v, want %v", i, got.CreatedAt, want[i].CreatedAt)
		}
		got.CreatedAt = want[i].CreatedAt
		if !reflect.DeepEqual(got, want[i]) {
			t.Errorf("item %d = %+v, want %+v", i, got, want[i])
		}
	}

	r := (*reqs)[0]
	if r.method != http.MethodGet || r.path != "/rest/v1/process_items" {
		t.Errorf("request = %s %s", r.method, r.path)
	}
	if got := r.query["is_archived"]; len(got) != 1 || got[0] != "eq.false" {
		t.Errorf("is_archived = %v", got)
	}
	if r.query["order"][0] != "created_at.asc" || r.query["select"][0] != "*" {
		t.Errorf("query = %v", r.query)
	}
	for k, v := range map[string]string{
		"apikey":        "anon-key",
		"Authorization": "Bearer anon-key",
		"Cache-Control": "no-cache",
		"Pragma":        "no-cache",
	} {
		if got := r.header.Get(k); got != v {
			t.Errorf("header %s = %q, want %q", k, got, v)
		}
	}
}

func TestListProcessItems_IncludeArchived(t *testing.T) {
	c, reqs := newServer(t, 200, `[]`)
	if _, err := c.ListProcessItems(context.Background(), ListOptions{IncludeArchived: true}); err != nil {
		t.Fatal(err)
	}
	if _, ok := (*reqs)[0].query["is_archived"]; ok {
		t.Error("archived filter sent with IncludeArchived")
	}
}

func TestAddProcessItem(t *testing.T) {
	c, reqs := newServer(t, 201, `[{"id":"new","created_at":"2025-10-10T12:00:00Z","title":"T","content":"C","source_agent_id":"prompter","type":"prompt","is_archived":false,"scenario_id":"s9","scenario_title":"3. Rain"}]`)

	got, err := c.AddProcessItem(context.Background(), ProcessItem{
		ID:            "ignored",
		Title:         "T",
		Content:       "C",
		SourceAgentID: "prompter",
		Type:          TypePrompt,
		ScenarioID:    "s9",
		ScenarioTitle: "3. Rain",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "new" || got.CreatedAt.IsZero() || got.ScenarioTitle != "3. Rain" {
		t.Errorf("AddProcessItem() = %+v", got)
	}

	r := (*reqs)[0]
	if r.method != http.MethodPost || r.header.Get("Prefer") != "return=representation" {
		t.Errorf("request = %s, Prefer %q", r.method, r.header.Get("Prefer"))
	}
	var body map[string]any
	if err := json.Unmarshal(r.body, &body); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"title":           "T",
		"content":         "C",
		"source_agent_id": "prompter",
		"type":            "prompt",
		"is_archived":     false,
		"scenario_id":     "s9",
		"scenario_title":  "3. Rain",
	}
	if !reflect.DeepEqual(body, want) {
		t.Errorf("body = %v, want %v", body, want)
	}
}

func TestAddProcessItem_SchemaViolation(t *testing.T) {
	c, _ := newServer(t, 400, `{"code":"22P02","details":null,"hint":null,"message":"invalid input value for enum process_item_type: \"prompt\""}`)

	_, err := c.AddProcessItem(context.Background(), ProcessItem{Title: "T", Type: TypePrompt})
	sv, ok := AsSchemaViolation(err)
	if !ok {
		t.Fatalf("error = %v, want *SchemaViolationError", err)
	}
	if sv.Value != "prompt" || sv.Enum != "process_item_type" {
		t.Errorf("violation = %+v", sv)
	}
	if sv.Hint != "ALTER TYPE process_item_type ADD VALUE 'prompt';" {
		t.Errorf("Hint = %q", sv.Hint)
	}
	e, ok := AsError(err)
	if !ok || e.StatusCode != 400 || e.Code != "22P02" {
		t.Errorf("underlying error = %+v", e)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message", 401, `{"message":"JWT expired","code":"PGRST301"}`, "JWT expired"},
		{"error field", 500, `{"error":"boom"}`, "boom"},
		{"plain text", 502, `bad gateway`, "bad gateway"},
		{"empty", 503, ``, "503 Service Unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newServer(t, tt.status, tt.body)
			err := c.DeleteProcessItem(context.Background(), "x")
			e, ok := AsError(err)
			if !ok {
				t.Fatalf("error = %v, want *Error", err)
			}
			if e.Message != tt.want || e.StatusCode != tt.status {
				t.Errorf("error = %+v", e)
			}
			if _, ok := AsSchemaViolation(err); ok {
				t.Error("plain error classified as schema violation")
			}
		})
	}
}

func TestDeleteProcessItem(t *testing.T) {
	c, reqs := newServer(t, 204, ``)
	if err := c.DeleteProcessItem(context.Background(), "abc"); err != nil {
		t.Fatal(err)
	}
	r := (*reqs)[0]
	if r.method != http.MethodDelete || r.query["id"][0] != "eq.abc" {
		t.Errorf("request = %s %v", r.method, r.query)
	}
}

func TestSetArchived(t *testing.T) {
	c, reqs := newServer(t, 204, ``)
	ctx := context.Background()

	if err := c.SetArchived(ctx, nil, true); err != nil {
		t.Fatal(err)
	}
	if len(*reqs) != 0 {
		t.Fatalf("empty id list sent %d requests", len(*reqs))
	}

	if err := c.SetArchived(ctx, []string{"a", "b"}, false); err != nil {
		t.Fatal(err)
	}
	if len(*reqs) != 1 {
		t.Fatalf("sent %d requests, want 1", len(*reqs))
	}
	r := (*reqs)[0]
	if r.method != http.MethodPatch || r.query["id"][0] != `in.("a","b")` {
		t.Errorf("request = %s %v", r.method, r.query)
	}
	if string(r.body) != `{"is_archived":false}` {
		t.Errorf("body = %s", r.body)
	}
}

func TestArchiveAll(t *testing.T) {
	c, reqs := newServer(t, 204, ``)
	if err := c.ArchiveAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	r := (*reqs)[0]
	if r.method != http.MethodPatch || r.query["is_archived"][0] != "eq.false" || string(r.body) != `{"is_archived":true}` {
		t.Errorf("request = %s %v %s", r.method, r.query, r.body)
	}
}

func TestChatHistories(t *testing.T) {
	c, reqs := newServer(t, 200, `[{"agent_id":"angle","history":[{"role":"user","text":"hi"},{"role":"model","text":"hello"}]},{"agent_id":"deep","history":[]}]`)
	ctx := context.Background()

	got, err := c.ListChatHistories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string][]ChatMessage{
		"angle": {{Role: RoleUser, Text: "hi"}, {Role: RoleModel, Text: "hello"}},
		"deep":  {},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListChatHistories() = %v, want %v", got, want)
	}
	if (*reqs)[0].query["select"][0] != "agent_id,history" {
		t.Errorf("select = %v", (*reqs)[0].query["select"])
	}

	if err := c.SaveChatHistory(ctx, "angle", nil); err != nil {
		t.Fatal(err)
	}
	r := (*reqs)[1]
	if r.method != http.MethodPost || r.header.Get("Prefer") != "resolution=merge-duplicates" {
		t.Errorf("save request = %s, Prefer %q", r.method, r.header.Get("Prefer"))
	}
	if string(r.body) != `{"agent_id":"angle","history":[]}` {
		t.Errorf("save body = %s", r.body)
	}

	if err := c.DeleteAllChatHistories(ctx); err != nil {
		t.Fatal(err)
	}
	r = (*reqs)[2]
	if r.method != http.MethodDelete || r.query["agent_id"][0] != "not.is.null" {
		t.Errorf("delete request = %s %v", r.method, r.query)
	}
}

func TestNotConfigured(t *testing.T) {
	c := NewClient("", "")
	if _, err := c.ListProcessItems(context.Background(), ListOptions{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}

func TestRowMappingIsTotal(t *testing.T) {
	it := ProcessItem{
		ID:            "id",
		CreatedAt:     jsontime.Timestamp(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)),
		Title:         "t",
		Content:       "c",
		SourceAgentID: "s",
		Type:          TypeResearch,
		Archived:      true,
		ScenarioID:    "sid",
		ScenarioTitle: "st",
	}
	data, err := json.Marshal(toRow(it))
	if err != nil {
		t.Fatal(err)
	}
	var row itemRow
	if err := json.Unmarshal(data, &row); err != nil {
		t.Fatal(err)
	}
	got := row.item()
	if !got.CreatedAt.Time().Equal(it.CreatedAt.Time()) {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}
	got.CreatedAt = it.CreatedAt
	if got != it {
		t.Errorf("mapping = %+v, want %+v", got, it)
	}
}

func TestItemType(t *testing.T) {
	for i, typ := range ItemTypes {
		if typ.Rank() != i || !typ.Valid() {
			t.Errorf("%s: Rank() = %d", typ, typ.Rank())
		}
	}
	if ItemType("visual").Valid() {
		t.Error("unknown type reported valid")
	}
}
