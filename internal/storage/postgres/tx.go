package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/models"
	"github.com/fkhayef/groupledger/internal/storage"
)

// InGroupTx locks the group row FOR UPDATE, runs fn and bumps the ledger
// version in the same transaction. Serialization failures and deadlocks come
// back as apperr conflicts.
func (s *Store) InGroupTx(ctx context.Context, groupID uuid.UUID, fn func(tx storage.GroupTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}
	defer tx.Rollback()

	g, err := scanGroup(tx.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = $1 FOR UPDATE`, groupID))
	if err != nil {
		return classify(err)
	}

	gtx := &groupTx{tx: tx, group: g, now: s.now()}
	if err := fn(gtx); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE groups SET ledger_version = ledger_version + 1, updated_at = $2 WHERE id = $1
	`, groupID, gtx.now)
	if err != nil {
		return fmt.Errorf("failed to bump ledger version: %w", classify(err))
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", classify(err))
	}
	return nil
}

type groupTx struct {
	tx    *sql.Tx
	group *models.Group
	now   time.Time
}

func (t *groupTx) Group() *models.Group {
	g := *t.group
	return &g
}

func (t *groupTx) Snapshot(ctx context.Context) (*models.LedgerSnapshot, error) {
	return loadSnapshot(ctx, t.tx, t.group)
}

func (t *groupTx) Member(ctx context.Context, userID uuid.UUID) (*models.Member, error) {
	return getMember(ctx, t.tx, t.group.ID, userID)
}

func (t *groupTx) ActiveMembers(ctx context.Context) ([]models.Member, error) {
	return listMembers(ctx, t.tx, t.group.ID, true)
}

func (t *groupTx) UpdateGroup(ctx context.Context, g *models.Group) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE groups SET name = $2, description = $3 WHERE id = $1`,
		t.group.ID, g.Name, g.Description)
	if err != nil {
		return classify(err)
	}
	t.group.Name = g.Name
	t.group.Description = g.Description
	return nil
}

// AddMember inserts a membership or reactivates a departed one. An active
// membership is a duplicate.
func (t *groupTx) AddMember(ctx context.Context, m *models.Member) error {
	m.GroupID = t.group.ID
	m.JoinedAt = t.now
	m.LeftAt = nil

	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id, user_id) DO UPDATE
		SET role = EXCLUDED.role, joined_at = EXCLUDED.joined_at, left_at = NULL
		WHERE group_members.left_at IS NOT NULL
	`, m.GroupID, m.UserID, m.Role, m.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", classify(err))
	}
	if err := requireRow(res); err != nil {
		return fmt.Errorf("failed to add member: %w", storage.ErrDuplicate)
	}
	return nil
}

func (t *groupTx) UpdateMemberRole(ctx context.Context, userID uuid.UUID, role models.MemberRole) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE group_members SET role = $3
		WHERE group_id = $1 AND user_id = $2 AND left_at IS NULL
	`, t.group.ID, userID, role)
	if err != nil {
		return classify(err)
	}
	return requireRow(res)
}

func (t *groupTx) RemoveMember(ctx context.Context, userID uuid.UUID) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE group_members SET left_at = $3
		WHERE group_id = $1 AND user_id = $2 AND left_at IS NULL
	`, t.group.ID, userID, t.now)
	if err != nil {
		return classify(err)
	}
	return requireRow(res)
}

func (t *groupTx) GetExpense(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	return getExpense(ctx, t.tx, `id = $1 AND group_id = $2`, id, t.group.ID)
}

func (t *groupTx) insertSplits(ctx context.Context, e *models.Expense) error {
	for i := range e.Splits {
		e.Splits[i].ExpenseID = e.ID
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO expense_splits (expense_id, user_id, amount, position)
			VALUES ($1, $2, $3, $4)
		`, e.ID, e.Splits[i].UserID, e.Splits[i].Amount, i)
		if err != nil {
			return fmt.Errorf("failed to store splits: %w", classify(err))
		}
	}
	return nil
}

func (t *groupTx) InsertExpense(ctx context.Context, e *models.Expense) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.GroupID = t.group.ID
	e.CreatedAt = t.now
	e.UpdatedAt = t.now

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO expenses (id, group_id, creator_id, title, description, total_amount, split_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, e.ID, e.GroupID, e.CreatorID, e.Title, e.Description, e.TotalAmount, e.SplitType, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", classify(err))
	}
	return t.insertSplits(ctx, e)
}

// UpdateExpense rewrites the expense row and replaces its splits. Creator and
// creation time never change.
func (t *groupTx) UpdateExpense(ctx context.Context, e *models.Expense) error {
	e.GroupID = t.group.ID
	e.UpdatedAt = t.now
	err := t.tx.QueryRowContext(ctx, `
		UPDATE expenses
		SET title = $3, description = $4, total_amount = $5, split_type = $6, updated_at = $7
		WHERE id = $1 AND group_id = $2
		RETURNING creator_id, created_at
	`, e.ID, e.GroupID, e.Title, e.Description, e.TotalAmount, e.SplitType, e.UpdatedAt).Scan(&e.CreatorID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", classify(err))
	}

	if _, err := t.tx.ExecContext(ctx, `DELETE FROM expense_splits WHERE expense_id = $1`, e.ID); err != nil {
		return fmt.Errorf("failed to clear splits: %w", classify(err))
	}
	return t.insertSplits(ctx, e)
}

func (t *groupTx) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1 AND group_id = $2`, id, t.group.ID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", classify(err))
	}
	return requireRow(res)
}

func (t *groupTx) GetSettlement(ctx context.Context, id uuid.UUID) (*models.Settlement, error) {
	return getSettlement(ctx, t.tx, `id = $1 AND group_id = $2`, id, t.group.ID)
}

func (t *groupTx) InsertSettlement(ctx context.Context, st *models.Settlement) error {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	st.GroupID = t.group.ID
	st.SettledAt = t.now

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO settlements (id, group_id, paid_by, paid_to, amount, note, created_by, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, st.ID, st.GroupID, st.PaidBy, st.PaidTo, st.Amount, st.Note, st.CreatedBy, st.SettledAt)
	if err != nil {
		return fmt.Errorf("failed to create settlement: %w", classify(err))
	}
	return nil
}

func (t *groupTx) DeleteSettlement(ctx context.Context, id uuid.UUID) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM settlements WHERE id = $1 AND group_id = $2`, id, t.group.ID)
	if err != nil {
		return fmt.Errorf("failed to delete settlement: %w", classify(err))
	}
	return requireRow(res)
}

func (t *groupTx) Notify(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = t.now

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO notifications (id, recipient_id, group_id, type, message, is_read, entity_type, entity_id, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7, $8)
	`, n.ID, n.RecipientID, n.GroupID, n.Type, n.Message, n.EntityType, n.EntityID, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", classify(err))
	}
	return nil
}
