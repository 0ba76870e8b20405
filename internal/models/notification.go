package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType names the ledger event a notification describes.
type NotificationType string

const (
	NotificationExpenseAdded      NotificationType = "EXPENSE_ADDED"
	NotificationExpenseUpdated    NotificationType = "EXPENSE_UPDATED"
	NotificationExpenseDeleted    NotificationType = "EXPENSE_DELETED"
	NotificationSettlementAdded   NotificationType = "SETTLEMENT_ADDED"
	NotificationSettlementDeleted NotificationType = "SETTLEMENT_DELETED"
	NotificationMemberAdded       NotificationType = "MEMBER_ADDED"
)

// Notification tells a user about ledger activity that concerns them.
type Notification struct {
	ID          uuid.UUID        `json:"id"`
	RecipientID uuid.UUID        `json:"recipient_id"`
	GroupID     *uuid.UUID       `json:"group_id,omitempty"`
	Type        NotificationType `json:"type"`
	Message     string           `json:"message"`
	IsRead      bool             `json:"is_read"`
	EntityType  string           `json:"entity_type,omitempty"`
	EntityID    *uuid.UUID       `json:"entity_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
