// Package storage defines the ledger store used by every feature service.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/models"
)

// Sentinel errors returned by store implementations.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// Store is the durable ledger. Reads see committed state only; every ledger
// mutation goes through InGroupTx.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	ListUsers(ctx context.Context, page models.Page) ([]models.User, int, error)
	Usernames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)

	// CreateGroup stores g and makes creator its first admin.
	CreateGroup(ctx context.Context, g *models.Group, creator uuid.UUID) error
	GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error)
	// ListGroupsForUser returns groups the user is or was a member of.
	ListGroupsForUser(ctx context.Context, userID uuid.UUID, page models.Page) ([]models.Group, int, error)
	GroupIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// GetMember returns the membership row, including departed members.
	GetMember(ctx context.Context, groupID, userID uuid.UUID) (*models.Member, error)
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.Member, error)

	GetExpense(ctx context.Context, id uuid.UUID) (*models.Expense, error)
	ListExpenses(ctx context.Context, groupID uuid.UUID, f models.ExpenseFilter, page models.Page) ([]models.Expense, int, error)
	GetSettlement(ctx context.Context, id uuid.UUID) (*models.Settlement, error)
	ListSettlements(ctx context.Context, groupID uuid.UUID, f models.SettlementFilter, page models.Page) ([]models.Settlement, int, error)

	// Snapshot returns the group's whole ledger as of a single point in time.
	Snapshot(ctx context.Context, groupID uuid.UUID) (*models.LedgerSnapshot, error)
	LedgerVersion(ctx context.Context, groupID uuid.UUID) (int64, error)

	ListNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, page models.Page) ([]models.Notification, int, error)
	GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, recipientID uuid.UUID) error
	UnreadNotificationCount(ctx context.Context, recipientID uuid.UUID) (int, error)

	// InGroupTx runs fn with exclusive write access to the group's ledger.
	// Either everything fn did is committed or nothing is. The group's
	// ledger version is bumped on commit.
	InGroupTx(ctx context.Context, groupID uuid.UUID, fn func(tx GroupTx) error) error

	Ping(ctx context.Context) error
	Close() error
}

// GroupTx is the write view of one group's ledger inside InGroupTx.
type GroupTx interface {
	Group() *models.Group
	// Snapshot returns the ledger including this transaction's changes.
	Snapshot(ctx context.Context) (*models.LedgerSnapshot, error)
	Member(ctx context.Context, userID uuid.UUID) (*models.Member, error)
	ActiveMembers(ctx context.Context) ([]models.Member, error)

	UpdateGroup(ctx context.Context, g *models.Group) error
	AddMember(ctx context.Context, m *models.Member) error
	UpdateMemberRole(ctx context.Context, userID uuid.UUID, role models.MemberRole) error
	RemoveMember(ctx context.Context, userID uuid.UUID) error

	GetExpense(ctx context.Context, id uuid.UUID) (*models.Expense, error)
	InsertExpense(ctx context.Context, e *models.Expense) error
	UpdateExpense(ctx context.Context, e *models.Expense) error
	DeleteExpense(ctx context.Context, id uuid.UUID) error

	GetSettlement(ctx context.Context, id uuid.UUID) (*models.Settlement, error)
	InsertSettlement(ctx context.Context, s *models.Settlement) error
	DeleteSettlement(ctx context.Context, id uuid.UUID) error

	Notify(ctx context.Context, n *models.Notification) error
}
