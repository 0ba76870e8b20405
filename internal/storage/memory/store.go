// Package memory is an in-process storage.Store. Writers of one group are
// serialized by a per-group mutex and work on a staged copy of the group's
// ledger that replaces the committed copy only when the transaction succeeds.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/models"
	"github.com/fkhayef/groupledger/internal/storage"
)

type groupState struct {
	group       models.Group
	members     []models.Member
	expenses    []models.Expense
	settlements []models.Settlement
}

func (g *groupState) clone() *groupState {
	c := &groupState{
		group:       g.group,
		members:     append([]models.Member(nil), g.members...),
		expenses:    make([]models.Expense, len(g.expenses)),
		settlements: append([]models.Settlement(nil), g.settlements...),
	}
	for i, e := range g.expenses {
		c.expenses[i] = copyExpense(e)
	}
	return c
}

func copyExpense(e models.Expense) models.Expense {
	e.Splits = append([]models.Split(nil), e.Splits...)
	return e
}

// Store keeps everything in maps guarded by mu.
type Store struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]*models.User
	groups        map[uuid.UUID]*groupState
	notifications []*models.Notification
	writeLocks    map[uuid.UUID]*sync.Mutex

	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		users:      make(map[uuid.UUID]*models.User),
		groups:     make(map[uuid.UUID]*groupState),
		writeLocks: make(map[uuid.UUID]*sync.Mutex),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

// ---------------------------------------------------------------------------
// users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, u.Username) || strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("failed to create user: %w", storage.ErrDuplicate)
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	c := *u
	s.users[u.ID] = &c
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		return storage.ErrNotFound
	}
	for id, other := range s.users {
		if id != u.ID && (strings.EqualFold(other.Username, u.Username) || strings.EqualFold(other.Email, u.Email)) {
			return fmt.Errorf("failed to update user: %w", storage.ErrDuplicate)
		}
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = s.now()
	c := *u
	s.users[u.ID] = &c
	return nil
}

func (s *Store) ListUsers(ctx context.Context, page models.Page) ([]models.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	lo, hi := bounds(len(all), page)
	return all[lo:hi], len(all), nil
}

func (s *Store) Usernames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u.Username
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// groups and members

func (s *Store) CreateGroup(ctx context.Context, g *models.Group, creator uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[creator]; !ok {
		return fmt.Errorf("failed to create group: creator: %w", storage.ErrNotFound)
	}
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	g.CreatedBy = creator
	g.CreatedAt = s.now()
	g.UpdatedAt = g.CreatedAt
	g.LedgerVersion = 0
	s.groups[g.ID] = &groupState{
		group: *g,
		members: []models.Member{{
			GroupID:  g.ID,
			UserID:   creator,
			Role:     models.RoleAdmin,
			JoinedAt: g.CreatedAt,
		}},
	}
	return nil
}

func (s *Store) GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gs, ok := s.groups[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	g := gs.group
	return &g, nil
}

func (s *Store) ListGroupsForUser(ctx context.Context, userID uuid.UUID, page models.Page) ([]models.Group, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []models.Group
	for _, gs := range s.groups {
		if findMember(gs.members, userID) >= 0 {
			all = append(all, gs.group)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.String() < all[j].ID.String()
	})
	lo, hi := bounds(len(all), page)
	return all[lo:hi], len(all), nil
}

func (s *Store) GroupIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	groups, _, err := s.ListGroupsForUser(ctx, userID, models.Page{})
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	return ids, nil
}

func (s *Store) GetMember(ctx context.Context, groupID, userID uuid.UUID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gs, ok := s.groups[groupID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	i := findMember(gs.members, userID)
	if i < 0 {
		return nil, storage.ErrNotFound
	}
	m := s.withUsername(gs.members[i])
	return &m, nil
}

func (s *Store) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gs, ok := s.groups[groupID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]models.Member, 0, len(gs.members))
	for _, m := range gs.members {
		if m.Active() {
			out = append(out, s.withUsername(m))
		}
	}
	return out, nil
}

// withUsername requires s.mu to be held.
func (s *Store) withUsername(m models.Member) models.Member {
	if u, ok := s.users[m.UserID]; ok {
		m.Username = u.Username
	}
	return m
}

// ---------------------------------------------------------------------------
// ledger reads

func (s *Store) GetExpense(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, gs := range s.groups {
		if i := findExpense(gs.expenses, id); i >= 0 {
			e := copyExpense(gs.expenses[i])
			return &e, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ListExpenses(ctx context.Context, groupID uuid.UUID, f models.ExpenseFilter, page models.Page) ([]models.Expense, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gs, ok := s.groups[groupID]
	if !ok {
		return nil, 0, storage.ErrNotFound
	}
	var matched []models.Expense
	for i := len(gs.expenses) - 1; i >= 0; i-- {
		e := gs.expenses[i]
		if f.CreatedBy != nil && e.CreatorID != *f.CreatedBy {
			continue
		}
		if f.MinAmount != nil && e.TotalAmount < *f.MinAmount {
			continue
		}
		if f.MaxAmount != nil && e.TotalAmount > *f.MaxAmount {
			continue
		}
		matched = append(matched, copyExpense(e))
	}
	lo, hi := bounds(len(matched), page)
	return matched[lo:hi], len(matched), nil
}

func (s *Store) GetSettlement(ctx context.Context, id uuid.UUID) (*models.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, gs := range s.groups {
		if i := findSettlement(gs.settlements, id); i >= 0 {
			st := gs.settlements[i]
			return &st, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ListSettlements(ctx context.Context, groupID uuid.UUID, f models.SettlementFilter, page models.Page) ([]models.Settlement, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gs, ok := s.groups[groupID]
	if !ok {
		return nil, 0, storage.ErrNotFound
	}
	var matched []models.Settlement
	for i := len(gs.settlements) - 1; i >= 0; i-- {
		st := gs.settlements[i]
		if f.PaidBy != nil && st.PaidBy != *f.PaidBy {
			continue
		}
		if f.PaidTo != nil && st.PaidTo != *f.PaidTo {
			continue
		}
		matched = append(matched, st)
	}
	lo, hi := bounds(len(matched), page)
	return matched[lo:hi], len(matched), nil
}

func (s *Store) Snapshot(ctx context.Context, groupID uuid.UUID) (*models.LedgerSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gs, ok := s.groups[groupID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s.snapshotOf(gs.clone()), nil
}

// snapshotOf requires s.mu to be held; gs must not be shared.
func (s *Store) snapshotOf(gs *groupState) *models.LedgerSnapshot {
	for i := range gs.members {
		gs.members[i] = s.withUsername(gs.members[i])
	}
	return &models.LedgerSnapshot{
		Group:       gs.group,
		Version:     gs.group.LedgerVersion,
		Members:     gs.members,
		Expenses:    gs.expenses,
		Settlements: gs.settlements,
	}
}

func (s *Store) LedgerVersion(ctx context.Context, groupID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gs, ok := s.groups[groupID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	return gs.group.LedgerVersion, nil
}

// ---------------------------------------------------------------------------
// notifications

func (s *Store) ListNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, page models.Page) ([]models.Notification, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		n := s.notifications[i]
		if n.RecipientID != recipientID || (unreadOnly && n.IsRead) {
			continue
		}
		matched = append(matched, *n)
	}
	lo, hi := bounds(len(matched), page)
	return matched[lo:hi], len(matched), nil
}

func (s *Store) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.notifications {
		if n.ID == id {
			c := *n
			return &c, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.ID == id {
			n.IsRead = true
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipientID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			n.IsRead = true
		}
	}
	return nil
}

func (s *Store) UnreadNotificationCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// ---------------------------------------------------------------------------
// helpers

// bounds turns skip/limit into slice bounds. A zero limit means no limit.
func bounds(n int, page models.Page) (int, int) {
	lo := page.Skip
	if lo < 0 {
		lo = 0
	}
	if lo > n {
		lo = n
	}
	hi := n
	if page.Limit > 0 && lo+page.Limit < n {
		hi = lo + page.Limit
	}
	return lo, hi
}

func findMember(members []models.Member, userID uuid.UUID) int {
	for i := range members {
		if members[i].UserID == userID {
			return i
		}
	}
	return -1
}

func findExpense(expenses []models.Expense, id uuid.UUID) int {
	for i := range expenses {
		if expenses[i].ID == id {
			return i
		}
	}
	return -1
}

func findSettlement(settlements []models.Settlement, id uuid.UUID) int {
	for i := range settlements {
		if settlements[i].ID == id {
			return i
		}
	}
	return -1
}
