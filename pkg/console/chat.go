package console

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/haivivi/mediaforge/pkg/agent"
	"github.com/haivivi/mediaforge/pkg/store"
)

// Chat frame types.
const (
	frameSend    = "send"
	frameReset   = "reset"
	frameConfirm = "confirm_export"

	frameDelta    = "delta"
	frameDone     = "done"
	frameExported = "exported"
	frameCleared  = "cleared"
	frameError    = "error"
)

// clientFrame is a message from the browser. Type defaults to "send".
type clientFrame struct {
	Type     string            `json:"type,omitempty"`
	AgentID  string            `json:"agent_id"`
	Text     string            `json:"text"`
	Proposal *agent.Suggestion `json:"proposal,omitempty"`
}

// serverFrame is a message to the browser.
type serverFrame struct {
	Type        string             `json:"type"`
	AgentID     string             `json:"agent_id,omitempty"`
	Text        string             `json:"text,omitempty"`
	Suggestions []agent.Suggestion `json:"suggestions,omitempty"`
	Proposal    *agent.Suggestion  `json:"proposal,omitempty"`
	Item        *store.ProcessItem `json:"item,omitempty"`
	Error       string             `json:"error,omitempty"`
	Kind        string             `json:"kind,omitempty"`
}

// handleChat runs chat turns over a WebSocket. Turns on one connection run
// one at a time; fragments are sent as delta frames as they arrive and each
// turn ends with a done frame.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("console: websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	for {
		var in clientFrame
		if err := conn.ReadJSON(&in); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("console: chat read", "error", err)
			}
			return
		}

		var out serverFrame
		switch in.Type {
		case "", frameSend:
			writeFailed := false
			reply, err := s.room.Send(ctx, in.AgentID, in.Text, func(frag string) {
				if writeFailed {
					return
				}
				if err := conn.WriteJSON(serverFrame{Type: frameDelta, AgentID: in.AgentID, Text: frag}); err != nil {
					writeFailed = true
				}
			})
			if err != nil {
				out = errorFrame(in.AgentID, err)
				break
			}
			out = serverFrame{
				Type:        frameDone,
				AgentID:     reply.AgentID,
				Text:        reply.Text,
				Suggestions: reply.Suggestions,
				Proposal:    reply.Proposal,
			}
			if reply.Err != nil {
				_, out.Kind = classify(reply.Err)
				out.Error = reply.Err.Error()
			}
		case frameReset:
			if err := s.room.Reset(ctx); err != nil {
				out = errorFrame("", err)
				break
			}
			out = serverFrame{Type: frameCleared}
		case frameConfirm:
			if in.Proposal == nil {
				out = errorFrame(in.AgentID, badRequest("proposal is required"))
				break
			}
			item, err := s.room.ConfirmExport(ctx, *in.Proposal)
			if err != nil {
				out = errorFrame(in.AgentID, err)
				break
			}
			out = serverFrame{Type: frameExported, AgentID: agent.IDPrompter, Item: item}
		default:
			out = errorFrame(in.AgentID, badRequest("unknown frame type "+in.Type))
		}

		if err := conn.WriteJSON(out); err != nil {
			slog.Debug("console: chat write", "error", err)
			return
		}
	}
}

func errorFrame(agentID string, err error) serverFrame {
	_, kind := classify(err)
	return serverFrame{Type: frameError, AgentID: agentID, Error: err.Error(), Kind: kind}
}
