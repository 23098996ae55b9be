package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// TokenCheck validates a bearer token; nil disables authentication
type TokenCheck func(token string) error

type welcome struct {
	Type     string   `json:"type"`
	Channels []string `json:"channels"`
	Table    *string  `json:"table"`
}

// StreamHandler serves GET /ws. Without ?table= the client receives every
// change; with it, only changes of that table. The first frame is a welcome
// naming the subscribed channels.
type StreamHandler struct {
	hub            *Hub
	check          TokenCheck
	originPatterns []string
}

func NewStreamHandler(hub *Hub, check TokenCheck, originPatterns []string) *StreamHandler {
	return &StreamHandler{hub: hub, check: check, originPatterns: originPatterns}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		slog.Debug("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	if h.check != nil {
		if err := h.check(tokenFrom(r)); err != nil {
			slog.Debug("websocket auth failed", "error", err)
			conn.Close(websocket.StatusPolicyViolation, "authentication required")
			return
		}
	}

	var table *string
	channel := BuildChannel("")
	if t := r.URL.Query().Get("table"); t != "" {
		table = &t
		channel = BuildChannel(t)
	}

	sub, err := h.hub.Subscribe(channel)
	if err != nil {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer sub.Close()

	// Clients only listen; CloseRead handles their control frames and
	// cancels ctx once they hang up.
	ctx := conn.CloseRead(r.Context())

	if err := wsjson.Write(ctx, conn, welcome{Type: "welcome", Channels: sub.Channels, Table: table}); err != nil {
		return
	}
	h.stream(ctx, conn, sub)
}

func (h *StreamHandler) stream(ctx context.Context, conn *websocket.Conn, sub *Subscription) {
	for {
		select {
		case <-ctx.Done():
			slog.Debug("websocket disconnected")
			return
		case msg, ok := <-sub.C:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if !json.Valid(msg) {
				slog.Debug("dropping malformed event payload")
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				slog.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

// tokenFrom reads ?token= or a bearer Authorization header
func tokenFrom(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
