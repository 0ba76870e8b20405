package group

import (
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/models"
)

// CreateGroupRequest represents the request to create a new group
type CreateGroupRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

// UpdateGroupRequest represents the request to update a group
type UpdateGroupRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

// AddMemberRequest represents the request to add a member to a group
type AddMemberRequest struct {
	UserID uuid.UUID         `json:"user_id" validate:"required"`
	Role   models.MemberRole `json:"role,omitempty" validate:"omitempty,oneof=admin member" enums:"admin,member"`
}

// UpdateMemberRequest represents the request to change a member's role
type UpdateMemberRequest struct {
	Role models.MemberRole `json:"role" validate:"required,oneof=admin member" enums:"admin,member"`
}

// GroupResponse represents the response for a group
type GroupResponse struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	Description   *string           `json:"description,omitempty"`
	CreatedBy     uuid.UUID         `json:"created_by"`
	LedgerVersion int64             `json:"ledger_version"`
	CreatedAt     string            `json:"created_at"`
	Members       []*MemberResponse `json:"members,omitempty"`
}

// MemberResponse represents a member in a group response
type MemberResponse struct {
	UserID   uuid.UUID         `json:"user_id"`
	Username string            `json:"username"`
	Role     models.MemberRole `json:"role"`
	JoinedAt string            `json:"joined_at"`
}

// toGroupResponse converts a Group model to a GroupResponse DTO
func toGroupResponse(g *models.Group) *GroupResponse {
	return &GroupResponse{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		CreatedBy:     g.CreatedBy,
		LedgerVersion: g.LedgerVersion,
		CreatedAt:     g.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// toMemberResponse converts a Member model to a MemberResponse DTO
func toMemberResponse(m *models.Member) *MemberResponse {
	return &MemberResponse{
		UserID:   m.UserID,
		Username: m.Username,
		Role:     m.Role,
		JoinedAt: m.JoinedAt.UTC().Format(time.RFC3339),
	}
}
