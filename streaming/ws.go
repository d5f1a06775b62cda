package streaming

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nhooyr.io/websocket"
)

const wsWriteTimeout = 10 * time.Second

// Handler serves a websocket fill/liquidation/funding event stream off a
// Hub, following the teacher's rpc.Server.handlePOSFinalityWS: accept,
// replay the cursor-bounded backlog, then stream live updates until the
// client disconnects.
func Handler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "stream closed")
		if err := stream(r.Context(), hub, conn, cursor); err != nil {
			if status := websocket.CloseStatus(err); status == -1 {
				_ = conn.Close(websocket.StatusInternalError, "stream error")
			}
		}
	}
}

func stream(ctx context.Context, hub *Hub, conn *websocket.Conn, cursor string) error {
	updates, cancel, backlog := hub.Subscribe(cursor)
	defer cancel()

	for _, u := range backlog {
		if err := writeUpdate(ctx, conn, u); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeUpdate(ctx, conn, update); err != nil {
				return err
			}
		}
	}
}

// wirePayload is the JSON shape streamed to subscribers; Cursor lets a
// reconnecting client resume with ?cursor=<value>.
type wirePayload struct {
	Cursor     string            `json:"cursor"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

func writeUpdate(ctx context.Context, conn *websocket.Conn, update Update) error {
	payload := wirePayload{
		Cursor:     strconv.FormatUint(update.Sequence, 10),
		Type:       update.Type,
		Attributes: update.Attributes,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
