package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/leengari/graphsql/internal/domain/data"
)

// Change actions
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ChangeEvent is the payload of a change notification
type ChangeEvent struct {
	Table  string      `json:"table"`
	Action string      `json:"action"`
	Record data.Record `json:"record"`
}

// BuildChannel names the channel of a table, or the broadcast channel for an empty name
func BuildChannel(table string) string {
	if table == "" {
		return ChannelPrefix + "all"
	}
	return ChannelPrefix + table
}

func BuildPayload(table, action string, record data.Record) ChangeEvent {
	return ChangeEvent{Table: table, Action: action, Record: record}
}

// PublishChange broadcasts a change on the global channel and on the table's channel.
// It is best-effort: failures are logged and never reach the caller.
func PublishChange(ctx context.Context, pub Publisher, table, action string, record data.Record) {
	if pub == nil {
		return
	}
	message, err := json.Marshal(BuildPayload(table, action, record))
	if err != nil {
		slog.Debug("encode change event failed", "table", table, "error", err)
		return
	}
	for _, ch := range []string{BuildChannel(""), BuildChannel(table)} {
		if err := pub.Publish(ctx, ch, message); err != nil {
			slog.Debug("publish change failed", "table", table, "channel", ch, "error", err)
		}
	}
}
