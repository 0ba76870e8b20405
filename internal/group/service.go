package group

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/apperr"
	"github.com/fkhayef/groupledger/internal/balance"
	"github.com/fkhayef/groupledger/internal/events"
	"github.com/fkhayef/groupledger/internal/ledger"
	"github.com/fkhayef/groupledger/internal/models"
	"github.com/fkhayef/groupledger/internal/storage"
)

// Common errors
var (
	ErrGroupNotFound       = ledger.ErrGroupNotFound
	ErrUserNotFound        = apperr.NotFound("user not found")
	ErrMemberNotFound      = apperr.NotFound("member not found")
	ErrMemberAlreadyExists = apperr.Validation("user is already a member of this group")
	ErrNotAuthorized       = apperr.Authorization("not authorized to perform this action")
	ErrLastAdmin           = apperr.Validation("a group needs at least one admin")
	ErrOutstandingBalance  = apperr.Validation("member still has outstanding balances in this group")
	ErrEmptyName           = apperr.Validation("name must not be empty")
)

// Service handles group business logic
type Service struct {
	store  storage.Store
	writer *ledger.Writer
}

// NewService creates a new group service
func NewService(writer *ledger.Writer) *Service {
	return &Service{store: writer.Store(), writer: writer}
}

// Create creates a new group and adds the creator as admin
func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, req *CreateGroupRequest) (*GroupResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	g := &models.Group{Name: name, Description: req.Description}
	if err := s.store.CreateGroup(ctx, g, creatorID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	s.writer.Logger().InfoContext(ctx, "group created", "group_id", g.ID, "created_by", creatorID)
	return s.GetByIDWithMembers(ctx, g.ID, creatorID)
}

// GetByIDWithMembers retrieves a group with its active members
func (s *Service) GetByIDWithMembers(ctx context.Context, id, viewerID uuid.UUID) (*GroupResponse, error) {
	if _, err := ledger.Reader(ctx, s.store, id, viewerID); err != nil {
		return nil, err
	}
	g, err := s.store.GetGroup(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := toGroupResponse(g)
	resp.Members = make([]*MemberResponse, len(members))
	for i := range members {
		resp.Members[i] = toMemberResponse(&members[i])
	}
	return resp, nil
}

// ListByUserID retrieves the groups a user is or was a member of
func (s *Service) ListByUserID(ctx context.Context, userID uuid.UUID, page models.Page) ([]*GroupResponse, int, error) {
	groups, total, err := s.store.ListGroupsForUser(ctx, userID, page)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*GroupResponse, len(groups))
	for i := range groups {
		out[i] = toGroupResponse(&groups[i])
	}
	return out, total, nil
}

// Update modifies a group's name or description. Admins only.
func (s *Service) Update(ctx context.Context, id, actorID uuid.UUID, req *UpdateGroupRequest) (*GroupResponse, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, ErrEmptyName
	}
	op := ledger.Op{Entity: "group", Name: "update"}
	err := s.writer.Write(ctx, id, op, func(ctx context.Context, tx storage.GroupTx) (*events.Event, error) {
		if _, err := admin(ctx, tx, actorID); err != nil {
			return nil, err
		}
		g := tx.Group()
		if req.Name != nil {
			g.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			g.Description = req.Description
		}
		if err := tx.UpdateGroup(ctx, g); err != nil {
			return nil, fmt.Errorf("failed to update group: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByIDWithMembers(ctx, id, actorID)
}

// AddMember adds a user to a group. Admins only. A departed member who is
// added again keeps their ledger history.
func (s *Service) AddMember(ctx context.Context, groupID, actorID uuid.UUID, req *AddMemberRequest) (*MemberResponse, error) {
	role := req.Role
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() {
		return nil, apperr.Validation("invalid role %q", role)
	}

	var added *models.Member
	op := ledger.Op{Entity: "member", Name: "add"}
	err := s.writer.Write(ctx, groupID, op, func(ctx context.Context, tx storage.GroupTx) (*events.Event, error) {
		actor, err := admin(ctx, tx, actorID)
		if err != nil {
			return nil, err
		}
		m := &models.Member{UserID: req.UserID, Role: role}
		if err := tx.AddMember(ctx, m); err != nil {
			switch {
			case errors.Is(err, storage.ErrDuplicate):
				return nil, ErrMemberAlreadyExists
			case errors.Is(err, storage.ErrNotFound):
				return nil, ErrUserNotFound
			}
			return nil, err
		}
		if added, err = tx.Member(ctx, req.UserID); err != nil {
			return nil, err
		}

		group := tx.Group()
		if req.UserID != actorID {
			n := &models.Notification{
				RecipientID: req.UserID,
				GroupID:     &group.ID,
				Type:        models.NotificationMemberAdded,
				Message:     fmt.Sprintf("%s added you to %s", actor.Username, group.Name),
				EntityType:  "group",
				EntityID:    &group.ID,
			}
			if err := tx.Notify(ctx, n); err != nil {
				return nil, fmt.Errorf("failed to record notification: %w", err)
			}
		}
		return memberEvent(events.MemberAdded, group, actorID, req.UserID), nil
	})
	if err != nil {
		return nil, err
	}
	return toMemberResponse(added), nil
}

// GetMembers retrieves the active members of a group
func (s *Service) GetMembers(ctx context.Context, groupID, viewerID uuid.UUID) ([]*MemberResponse, error) {
	if _, err := ledger.Reader(ctx, s.store, groupID, viewerID); err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	out := make([]*MemberResponse, len(members))
	for i := range members {
		out[i] = toMemberResponse(&members[i])
	}
	return out, nil
}

// UpdateMember changes a member's role. Admins only; the last admin cannot
// demote themselves.
func (s *Service) UpdateMember(ctx context.Context, groupID, actorID, userID uuid.UUID, req *UpdateMemberRequest) (*MemberResponse, error) {
	if !req.Role.Valid() {
		return nil, apperr.Validation("invalid role %q", req.Role)
	}

	var updated *models.Member
	op := ledger.Op{Entity: "member", Name: "update"}
	err := s.writer.Write(ctx, groupID, op, func(ctx context.Context, tx storage.GroupTx) (*events.Event, error) {
		if _, err := admin(ctx, tx, actorID); err != nil {
			return nil, err
		}
		target, err := activeMember(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		if target.IsAdmin() && req.Role != models.RoleAdmin {
			members, err := tx.ActiveMembers(ctx)
			if err != nil {
				return nil, err
			}
			if countAdmins(members) <= 1 {
				return nil, ErrLastAdmin
			}
		}
		if err := tx.UpdateMemberRole(ctx, userID, req.Role); err != nil {
			return nil, fmt.Errorf("failed to update member: %w", err)
		}
		updated, err = tx.Member(ctx, userID)
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return toMemberResponse(updated), nil
}

// RemoveMember takes a user out of a group: an admin removing someone, or a
// member leaving. It is refused while the member has any nonzero balance in
// the group. When the last admin leaves, the longest-standing member becomes
// admin.
func (s *Service) RemoveMember(ctx context.Context, groupID, actorID, userID uuid.UUID) error {
	op := ledger.Op{Entity: "member", Name: "remove"}
	return s.writer.Write(ctx, groupID, op, func(ctx context.Context, tx storage.GroupTx) (*events.Event, error) {
		actor, err := ledger.Actor(ctx, tx, actorID)
		if err != nil {
			return nil, err
		}
		if actorID != userID && !actor.IsAdmin() {
			return nil, ErrNotAuthorized
		}
		target, err := activeMember(ctx, tx, userID)
		if err != nil {
			return nil, err
		}

		snap, err := tx.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger: %w", err)
		}
		l, err := balance.Compute(snap)
		if err != nil {
			return nil, err
		}
		if open := l.ForViewer(userID); len(open) > 0 {
			return nil, fmt.Errorf("%w: %d unsettled", ErrOutstandingBalance, len(open))
		}

		if err := tx.RemoveMember(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to remove member: %w", err)
		}
		if target.IsAdmin() {
			if err := promoteIfHeadless(ctx, tx); err != nil {
				return nil, err
			}
		}
		return memberEvent(events.MemberRemoved, tx.Group(), actorID, userID), nil
	})
}

// promoteIfHeadless makes the longest-standing member admin when no active
// admin is left.
func promoteIfHeadless(ctx context.Context, tx storage.GroupTx) error {
	members, err := tx.ActiveMembers(ctx)
	if err != nil {
		return err
	}
	if countAdmins(members) > 0 {
		return nil
	}
	next := successor(members)
	if next == nil {
		return nil
	}
	if err := tx.UpdateMemberRole(ctx, next.UserID, models.RoleAdmin); err != nil {
		return fmt.Errorf("failed to promote member: %w", err)
	}
	return nil
}

func admin(ctx context.Context, tx storage.GroupTx, userID uuid.UUID) (*models.Member, error) {
	m, err := ledger.Actor(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if !m.IsAdmin() {
		return nil, ledger.ErrNotAdmin
	}
	return m, nil
}

func activeMember(ctx context.Context, tx storage.GroupTx, userID uuid.UUID) (*models.Member, error) {
	m, err := tx.Member(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	if !m.Active() {
		return nil, ErrMemberNotFound
	}
	return m, nil
}

func memberEvent(typ string, group *models.Group, actorID, userID uuid.UUID) *events.Event {
	return &events.Event{
		Type:          typ,
		GroupID:       group.ID,
		ActorID:       actorID,
		EntityID:      userID,
		LedgerVersion: group.LedgerVersion + 1,
	}
}
