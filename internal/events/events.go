// Package events publishes ledger changes for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/models"
)

// Event types
const (
	ExpenseCreated    = "expense.created"
	ExpenseUpdated    = "expense.updated"
	ExpenseDeleted    = "expense.deleted"
	SettlementCreated = "settlement.created"
	SettlementDeleted = "settlement.deleted"
	MemberAdded       = "member.added"
	MemberRemoved     = "member.removed"
)

// Event describes one committed ledger change.
type Event struct {
	Type          string        `json:"type"`
	GroupID       uuid.UUID     `json:"group_id"`
	ActorID       uuid.UUID     `json:"actor_id"`
	EntityID      uuid.UUID     `json:"entity_id"`
	Amount        models.Amount `json:"amount"`
	LedgerVersion int64         `json:"ledger_version,omitempty"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

// ToJSON encodes the event body.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events after the change they describe has committed.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

func (Nop) Close() error { return nil }
