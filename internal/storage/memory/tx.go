package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/models"
	"github.com/fkhayef/groupledger/internal/storage"
)

func (s *Store) writeLock(groupID uuid.UUID) (*sync.Mutex, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[groupID]; !ok {
		return nil, false
	}
	l, ok := s.writeLocks[groupID]
	if !ok {
		l = &sync.Mutex{}
		s.writeLocks[groupID] = l
	}
	return l, true
}

// InGroupTx serializes writers of one group. fn works on a private copy of the
// group's ledger; the copy replaces the committed state only if fn succeeds
// and ctx is still live.
func (s *Store) InGroupTx(ctx context.Context, groupID uuid.UUID, fn func(tx storage.GroupTx) error) error {
	lock, ok := s.writeLock(groupID)
	if !ok {
		return storage.ErrNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	staged := s.groups[groupID].clone()
	s.mu.RUnlock()

	tx := &groupTx{store: s, state: staged, now: s.now()}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	staged.group.LedgerVersion++
	staged.group.UpdatedAt = tx.now
	s.groups[groupID] = staged
	s.notifications = append(s.notifications, tx.notifications...)
	return nil
}

type groupTx struct {
	store         *Store
	state         *groupState
	notifications []*models.Notification
	now           time.Time
}

func (t *groupTx) Group() *models.Group {
	g := t.state.group
	return &g
}

func (t *groupTx) Snapshot(ctx context.Context) (*models.LedgerSnapshot, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return t.store.snapshotOf(t.state.clone()), nil
}

func (t *groupTx) Member(ctx context.Context, userID uuid.UUID) (*models.Member, error) {
	i := findMember(t.state.members, userID)
	if i < 0 {
		return nil, storage.ErrNotFound
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	m := t.store.withUsername(t.state.members[i])
	return &m, nil
}

func (t *groupTx) ActiveMembers(ctx context.Context) ([]models.Member, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	var out []models.Member
	for _, m := range t.state.members {
		if m.Active() {
			out = append(out, t.store.withUsername(m))
		}
	}
	return out, nil
}

func (t *groupTx) UpdateGroup(ctx context.Context, g *models.Group) error {
	t.state.group.Name = g.Name
	t.state.group.Description = g.Description
	return nil
}

func (t *groupTx) AddMember(ctx context.Context, m *models.Member) error {
	t.store.mu.RLock()
	_, known := t.store.users[m.UserID]
	t.store.mu.RUnlock()
	if !known {
		return fmt.Errorf("failed to add member: user: %w", storage.ErrNotFound)
	}

	m.GroupID = t.state.group.ID
	m.JoinedAt = t.now
	m.LeftAt = nil
	if i := findMember(t.state.members, m.UserID); i >= 0 {
		if t.state.members[i].Active() {
			return fmt.Errorf("failed to add member: %w", storage.ErrDuplicate)
		}
		t.state.members[i] = *m
		return nil
	}
	t.state.members = append(t.state.members, *m)
	return nil
}

func (t *groupTx) UpdateMemberRole(ctx context.Context, userID uuid.UUID, role models.MemberRole) error {
	i := findMember(t.state.members, userID)
	if i < 0 || !t.state.members[i].Active() {
		return storage.ErrNotFound
	}
	t.state.members[i].Role = role
	return nil
}

func (t *groupTx) RemoveMember(ctx context.Context, userID uuid.UUID) error {
	i := findMember(t.state.members, userID)
	if i < 0 || !t.state.members[i].Active() {
		return storage.ErrNotFound
	}
	left := t.now
	t.state.members[i].LeftAt = &left
	return nil
}

func (t *groupTx) GetExpense(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	i := findExpense(t.state.expenses, id)
	if i < 0 {
		return nil, storage.ErrNotFound
	}
	e := copyExpense(t.state.expenses[i])
	return &e, nil
}

func (t *groupTx) InsertExpense(ctx context.Context, e *models.Expense) error {
	if err := checkSplits(e); err != nil {
		return err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.GroupID = t.state.group.ID
	e.CreatedAt = t.now
	e.UpdatedAt = t.now
	for i := range e.Splits {
		e.Splits[i].ExpenseID = e.ID
	}
	t.state.expenses = append(t.state.expenses, copyExpense(*e))
	return nil
}

func (t *groupTx) UpdateExpense(ctx context.Context, e *models.Expense) error {
	i := findExpense(t.state.expenses, e.ID)
	if i < 0 {
		return storage.ErrNotFound
	}
	if err := checkSplits(e); err != nil {
		return err
	}
	existing := t.state.expenses[i]
	e.GroupID = existing.GroupID
	e.CreatorID = existing.CreatorID
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = t.now
	for j := range e.Splits {
		e.Splits[j].ExpenseID = e.ID
	}
	t.state.expenses[i] = copyExpense(*e)
	return nil
}

func (t *groupTx) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	i := findExpense(t.state.expenses, id)
	if i < 0 {
		return storage.ErrNotFound
	}
	t.state.expenses = append(t.state.expenses[:i], t.state.expenses[i+1:]...)
	return nil
}

func (t *groupTx) GetSettlement(ctx context.Context, id uuid.UUID) (*models.Settlement, error) {
	i := findSettlement(t.state.settlements, id)
	if i < 0 {
		return nil, storage.ErrNotFound
	}
	st := t.state.settlements[i]
	return &st, nil
}

func (t *groupTx) InsertSettlement(ctx context.Context, st *models.Settlement) error {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	st.GroupID = t.state.group.ID
	st.SettledAt = t.now
	t.state.settlements = append(t.state.settlements, *st)
	return nil
}

func (t *groupTx) DeleteSettlement(ctx context.Context, id uuid.UUID) error {
	i := findSettlement(t.state.settlements, id)
	if i < 0 {
		return storage.ErrNotFound
	}
	t.state.settlements = append(t.state.settlements[:i], t.state.settlements[i+1:]...)
	return nil
}

func (t *groupTx) Notify(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = t.now
	c := *n
	t.notifications = append(t.notifications, &c)
	return nil
}

// checkSplits mirrors the unique (expense_id, user_id) constraint.
func checkSplits(e *models.Expense) error {
	seen := make(map[uuid.UUID]struct{}, len(e.Splits))
	for _, sp := range e.Splits {
		if _, dup := seen[sp.UserID]; dup {
			return fmt.Errorf("failed to store splits: %w", storage.ErrDuplicate)
		}
		seen[sp.UserID] = struct{}{}
	}
	return nil
}
