package models

import (
	"time"

	"github.com/google/uuid"
)

// MemberRole is a member's role within a group.
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// Valid reports whether r is a known role.
func (r MemberRole) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Group owns a ledger of expenses and settlements.
type Group struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	CreatedBy     uuid.UUID `json:"created_by"`
	LedgerVersion int64     `json:"ledger_version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Member is a user's membership in a group. Members who left keep their row
// with LeftAt set so older splits and settlements still resolve.
type Member struct {
	GroupID  uuid.UUID  `json:"group_id"`
	UserID   uuid.UUID  `json:"user_id"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `json:"left_at,omitempty"`

	// Populated from users
	Username string `json:"username,omitempty"`
}

// Active reports whether the member currently belongs to the group.
func (m *Member) Active() bool { return m != nil && m.LeftAt == nil }

// IsAdmin reports whether the member is an active admin.
func (m *Member) IsAdmin() bool { return m.Active() && m.Role == RoleAdmin }
