package models

import (
	"time"

	"github.com/google/uuid"
)

// SplitType selects how an expense total is divided.
type SplitType string

const (
	SplitEqual  SplitType = "equal"
	SplitCustom SplitType = "custom"
)

// Expense is a payment fronted by its creator on behalf of the split members.
type Expense struct {
	ID          uuid.UUID `json:"id"`
	GroupID     uuid.UUID `json:"group_id"`
	CreatorID   uuid.UUID `json:"creator_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	TotalAmount Amount    `json:"total_amount"`
	SplitType   SplitType `json:"split_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Splits      []Split   `json:"splits"`
}

// Split records that UserID owes Amount toward an expense.
type Split struct {
	ExpenseID uuid.UUID `json:"expense_id"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    Amount    `json:"amount"`
}

// SplitSum returns the sum of all split amounts.
func (e *Expense) SplitSum() Amount {
	var sum Amount
	for _, s := range e.Splits {
		sum += s.Amount
	}
	return sum
}

// ExpenseFilter narrows an expense listing.
type ExpenseFilter struct {
	CreatedBy *uuid.UUID
	MinAmount *Amount
	MaxAmount *Amount
}

// Page is skip/limit pagination.
type Page struct {
	Skip  int
	Limit int
}
