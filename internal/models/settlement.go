package models

import (
	"time"

	"github.com/google/uuid"
)

// Settlement is a direct payment that reduces what PaidBy owes PaidTo.
type Settlement struct {
	ID        uuid.UUID `json:"id"`
	GroupID   uuid.UUID `json:"group_id"`
	PaidBy    uuid.UUID `json:"paid_by"`
	PaidTo    uuid.UUID `json:"paid_to"`
	Amount    Amount    `json:"amount"`
	Note      string    `json:"note"`
	CreatedBy uuid.UUID `json:"created_by"`
	SettledAt time.Time `json:"settled_at"`
}

// SettlementFilter narrows a settlement listing.
type SettlementFilter struct {
	PaidBy *uuid.UUID
	PaidTo *uuid.UUID
}
