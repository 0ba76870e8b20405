package expense

import (
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/models"
)

// CreateExpenseRequest represents the request to create an expense
type CreateExpenseRequest struct {
	Title       string              `json:"title" validate:"required,min=1,max=255"`
	Description *string             `json:"description,omitempty" validate:"omitempty,max=2000"`
	TotalAmount models.Amount       `json:"total_amount" validate:"gt=0" swaggertype:"number" example:"300.00"`
	SplitType   models.SplitType    `json:"split_type" validate:"required,oneof=equal custom" enums:"equal,custom"`
	Splits      []*SplitParticipant `json:"splits" validate:"omitempty,dive"`
}

// UpdateExpenseRequest represents a partial update of an expense. A non-empty
// splits array replaces the whole split set.
type UpdateExpenseRequest struct {
	Title       *string             `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string             `json:"description,omitempty" validate:"omitempty,max=2000"`
	TotalAmount *models.Amount      `json:"total_amount,omitempty" validate:"omitempty,gt=0" swaggertype:"number"`
	SplitType   *models.SplitType   `json:"split_type,omitempty" validate:"omitempty,oneof=equal custom" enums:"equal,custom"`
	Splits      []*SplitParticipant `json:"splits,omitempty" validate:"omitempty,dive"`
}

// ListExpensesRequest carries the filters of an expense listing
type ListExpensesRequest struct {
	Filter models.ExpenseFilter
	Page   models.Page
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID              uuid.UUID        `json:"id"`
	GroupID         uuid.UUID        `json:"group_id"`
	CreatorID       uuid.UUID        `json:"creator_id"`
	CreatorUsername string           `json:"creator_username,omitempty"`
	Title           string           `json:"title"`
	Description     *string          `json:"description,omitempty"`
	TotalAmount     models.Amount    `json:"total_amount" swaggertype:"number"`
	SplitType       models.SplitType `json:"split_type"`
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at"`
	CanEdit         bool             `json:"can_edit"`
	CanDelete       bool             `json:"can_delete"`
	Splits          []*SplitResponse `json:"splits"`
}

// SplitResponse represents the response for a split
type SplitResponse struct {
	UserID   uuid.UUID     `json:"user_id"`
	Username string        `json:"username,omitempty"`
	Amount   models.Amount `json:"amount" swaggertype:"number"`
}

// toResponse converts an expense to the viewer's ExpenseResponse DTO
func toResponse(e *models.Expense, viewer *models.Member, names map[uuid.UUID]string) *ExpenseResponse {
	allowed := canModify(viewer, e)
	resp := &ExpenseResponse{
		ID:              e.ID,
		GroupID:         e.GroupID,
		CreatorID:       e.CreatorID,
		CreatorUsername: names[e.CreatorID],
		Title:           e.Title,
		Description:     e.Description,
		TotalAmount:     e.TotalAmount,
		SplitType:       e.SplitType,
		CreatedAt:       formatTime(e.CreatedAt),
		UpdatedAt:       formatTime(e.UpdatedAt),
		CanEdit:         allowed,
		CanDelete:       allowed,
		Splits:          make([]*SplitResponse, len(e.Splits)),
	}
	for i, s := range e.Splits {
		resp.Splits[i] = &SplitResponse{
			UserID:   s.UserID,
			Username: names[s.UserID],
			Amount:   s.Amount,
		}
	}
	return resp
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
