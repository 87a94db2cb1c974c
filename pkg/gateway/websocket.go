package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/igorsilveira/helloext/pkg/a2a"
	"github.com/igorsilveira/helloext/pkg/telemetry"
)

type wsIncoming struct {
	Type       string         `json:"type"`
	Content    string         `json:"content"`
	Extensions []string       `json:"extensions,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type wsOutgoing struct {
	Type       string   `json:"type"`
	SessionID  string   `json:"session_id,omitempty"`
	TaskID     string   `json:"task_id,omitempty"`
	Content    string   `json:"content,omitempty"`
	Extensions []string `json:"extensions,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func (g *Gateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		g.logger.Error("websocket accept failed", slog.String("err", err.Error()))
		return
	}
	defer conn.CloseNow()

	telemetry.Metrics.ActiveConnections.Inc()
	defer telemetry.Metrics.ActiveConnections.Dec()

	sessionID := uuid.NewString()
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	logger := g.logger.With(slog.String("session_id", sessionID))
	logger.Info("webchat client connected")

	if err := wsjson.Write(ctx, conn, wsOutgoing{Type: "session", SessionID: sessionID}); err != nil {
		return
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				logger.Info("webchat client disconnected")
			} else {
				logger.Error("websocket read error", slog.String("err", err.Error()))
			}
			return
		}

		var incoming wsIncoming
		if err := json.Unmarshal(data, &incoming); err != nil {
			_ = wsjson.Write(ctx, conn, wsOutgoing{Type: "error", Error: "invalid message format"})
			continue
		}
		if incoming.Content == "" {
			continue
		}
		if g.handler == nil {
			_ = wsjson.Write(ctx, conn, wsOutgoing{Type: "error", Error: "no agent configured"})
			continue
		}

		if err := g.runTurn(ctx, conn, sessionID, incoming); err != nil {
			logger.Error("agent turn failed", slog.String("err", err.Error()))
			_ = wsjson.Write(ctx, conn, wsOutgoing{Type: "error", Error: "failed to process message"})
		}
	}
}

// runTurn streams the agent's reply to one inbound text as token frames and
// finishes with a done frame listing the extensions that were applied.
func (g *Gateway) runTurn(ctx context.Context, conn *websocket.Conn, sessionID string, in wsIncoming) error {
	msg := a2a.NewTextMessage(a2a.RoleUser, in.Content)
	msg.ContextID = sessionID
	msg.Metadata = in.Metadata

	var taskID string
	activated, err := g.handler.Stream(ctx, *msg, a2a.NewExtensionSet(in.Extensions...), func(ev a2a.Event) error {
		var text string
		switch e := ev.(type) {
		case *a2a.Message:
			taskID = e.TaskID
			text = e.Text()
		case *a2a.TaskStatusUpdateEvent:
			taskID = e.TaskID
			if e.Status.Message != nil {
				text = e.Status.Message.Text()
			}
		}
		if text == "" {
			return nil
		}
		return wsjson.Write(ctx, conn, wsOutgoing{
			Type:      "token",
			SessionID: sessionID,
			TaskID:    taskID,
			Content:   text,
		})
	})
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, conn, wsOutgoing{
		Type:       "done",
		SessionID:  sessionID,
		TaskID:     taskID,
		Extensions: activated,
	})
}
