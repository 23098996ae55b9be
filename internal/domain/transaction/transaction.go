package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/leengari/graphsql/internal/domain/data"
)

// ChangeType represents the type of modification, named as it appears in change events
type ChangeType string

const (
	ChangeTypeCreated ChangeType = "created"
	ChangeTypeUpdated ChangeType = "updated"
	ChangeTypeDeleted ChangeType = "deleted"
)

// Change represents a single committed modification
type Change struct {
	Type   ChangeType
	Table  string
	Record data.Record
}

// Transaction is the per-call context of one engine operation.
// Mutations record their change here; it is handed to observers on completion.
type Transaction struct {
	ID        string    // UUID used for log correlation
	StartTime time.Time // When the transaction began
	Changes   []Change  // Modifications made
}

// NewTransaction creates a new transaction with a unique ID
func NewTransaction() *Transaction {
	return &Transaction{
		ID:        uuid.New().String(),
		StartTime: time.Now(),
		Changes:   make([]Change, 0, 1),
	}
}

// Record appends a change
func (tx *Transaction) Record(changeType ChangeType, table string, record data.Record) {
	tx.Changes = append(tx.Changes, Change{Type: changeType, Table: table, Record: record})
}

// Elapsed returns the time since the transaction began
func (tx *Transaction) Elapsed() time.Duration {
	return time.Since(tx.StartTime)
}
