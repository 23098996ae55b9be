package engine

import (
	"context"
	"log/slog"
)

// LoggingObserver logs all events using structured logging
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver() *LoggingObserver {
	return &LoggingObserver{
		logger: slog.Default(),
	}
}

// OnEvent implements the Observer interface.
// Failures log at warn, the rest at debug so a busy API does not flood the console.
func (lo *LoggingObserver) OnEvent(event Event) {
	level := slog.LevelDebug
	if event.Type == EventOpError || event.Type == EventTxAbort {
		level = slog.LevelWarn
	}
	lo.logger.Log(context.Background(), level, "record_lifecycle",
		"event", event.Type,
		"tx_id", event.TxID,
		"op", event.Op,
		"table", event.Table,
		"data", event.Data,
	)
}
