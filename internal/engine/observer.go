package engine

import "time"

// EventType represents the lifecycle phases of one record operation
type EventType string

const (
	EventOpStart  EventType = "op_start"
	EventOpEnd    EventType = "op_end"
	EventOpError  EventType = "op_error"
	EventTxCommit EventType = "tx_commit"
	EventTxAbort  EventType = "tx_rollback"
)

// Event represents a lifecycle event of a record operation
type Event struct {
	Type      EventType   // Type of event
	TxID      string      // Transaction ID for tracing
	Op        string      // "list", "get", "create", "update", "delete"
	Table     string      // Table the operation targets
	Timestamp time.Time   // When the event occurred
	Data      interface{} // Phase-specific data (e.g., id, rows affected, error)
}

// Observer interface for event subscribers.
// Observers are called synchronously on the request goroutine and must not block.
type Observer interface {
	OnEvent(event Event)
}
