package settlement

import (
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/models"
)

// CreateSettlementRequest represents the request to record a payment
// between two members. PaidBy defaults to the caller.
type CreateSettlementRequest struct {
	GroupID uuid.UUID     `json:"group_id" validate:"required"`
	PaidBy  *uuid.UUID    `json:"paid_by,omitempty"`
	PaidTo  uuid.UUID     `json:"paid_to" validate:"required"`
	Amount  models.Amount `json:"amount" validate:"gt=0" swaggertype:"number" example:"40.00"`
	Note    string        `json:"note" validate:"max=500"`
}

// ListSettlementsRequest carries the filters of a settlement listing
type ListSettlementsRequest struct {
	Filter models.SettlementFilter
	Page   models.Page
}

// SettlementResponse represents the response for a settlement
type SettlementResponse struct {
	ID             uuid.UUID     `json:"id"`
	GroupID        uuid.UUID     `json:"group_id"`
	PaidBy         uuid.UUID     `json:"paid_by"`
	PaidByUsername string        `json:"paid_by_username,omitempty"`
	PaidTo         uuid.UUID     `json:"paid_to"`
	PaidToUsername string        `json:"paid_to_username,omitempty"`
	Amount         models.Amount `json:"amount" swaggertype:"number"`
	Note           string        `json:"note"`
	CreatedBy      uuid.UUID     `json:"created_by"`
	SettledAt      string        `json:"settled_at"`
	CanEdit        bool          `json:"can_edit"`
	CanDelete      bool          `json:"can_delete"`
}

// toResponse converts a settlement to the viewer's SettlementResponse DTO.
// Settlements are never edited in place, so can_edit is always false.
func toResponse(st *models.Settlement, viewer *models.Member, names map[uuid.UUID]string) *SettlementResponse {
	return &SettlementResponse{
		ID:             st.ID,
		GroupID:        st.GroupID,
		PaidBy:         st.PaidBy,
		PaidByUsername: names[st.PaidBy],
		PaidTo:         st.PaidTo,
		PaidToUsername: names[st.PaidTo],
		Amount:         st.Amount,
		Note:           st.Note,
		CreatedBy:      st.CreatedBy,
		SettledAt:      st.SettledAt.UTC().Format(time.RFC3339),
		CanEdit:        false,
		CanDelete:      canDelete(viewer, st),
	}
}
