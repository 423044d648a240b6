package store

import (
	"context"
	"net/http"
	"net/url"
)

const historiesTable = "chat_histories"

// ListChatHistories returns every stored history keyed by agent id.
func (c *Client) ListChatHistories(ctx context.Context) (map[string][]ChatMessage, error) {
	var rows []historyRow
	if err := c.http.request(ctx, call{
		op:     "list chat histories",
		method: http.MethodGet,
		table:  historiesTable,
		query:  url.Values{"select": {"agent_id,history"}},
	}, &rows); err != nil {
		return nil, err
	}
	out := make(map[string][]ChatMessage, len(rows))
	for _, r := range rows {
		out[r.AgentID] = r.History
	}
	return out, nil
}

// SaveChatHistory replaces the stored history of agentID. Concurrent saves of
// the same agent are not merged; the last write wins.
func (c *Client) SaveChatHistory(ctx context.Context, agentID string, history []ChatMessage) error {
	if history == nil {
		history = []ChatMessage{}
	}
	return c.http.request(ctx, call{
		op:     "save chat history",
		method: http.MethodPost,
		table:  historiesTable,
		prefer: preferMergeDuplicate,
		body:   historyRow{AgentID: agentID, History: history},
	}, nil)
}

// DeleteAllChatHistories removes every stored history.
func (c *Client) DeleteAllChatHistories(ctx context.Context) error {
	return c.http.request(ctx, call{
		op:     "delete chat histories",
		method: http.MethodDelete,
		table:  historiesTable,
		query:  url.Values{"agent_id": {"not.is.null"}},
	}, nil)
}
