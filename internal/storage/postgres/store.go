// Package postgres is the database/sql + lib/pq implementation of
// storage.Store. Writers of one group serialize on the group row lock; readers
// take a repeatable-read snapshot.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/fkhayef/groupledger/internal/apperr"
	"github.com/fkhayef/groupledger/internal/models"
	"github.com/fkhayef/groupledger/internal/storage"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store keeps the ledger in Postgres.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New wraps an open connection pool. The schema must already be migrated.
func New(db *sql.DB) *Store {
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

// classify maps driver errors onto the storage sentinels and apperr kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return apperr.Conflict(err)
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", pqErr.Constraint, storage.ErrDuplicate)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: %w", pqErr.Constraint, storage.ErrNotFound)
		}
	}
	return err
}

// limitArg turns a zero limit into SQL NULL, which Postgres reads as no limit.
func limitArg(page models.Page) any {
	if page.Limit <= 0 {
		return nil
	}
	return page.Limit
}

func uuidArray(ids []uuid.UUID) any {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	return pq.Array(strs)
}

// ---------------------------------------------------------------------------
// users

const userColumns = `id, username, email, avatar_url, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt

	query := `
		INSERT INTO users (id, username, email, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query, u.ID, u.Username, u.Email, u.AvatarURL, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", classify(err))
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, classify(err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	u.UpdatedAt = s.now()
	query := `
		UPDATE users
		SET username = $2, email = $3, avatar_url = $4, updated_at = $5
		WHERE id = $1
		RETURNING created_at
	`
	err := s.db.QueryRowContext(ctx, query, u.ID, u.Username, u.Email, u.AvatarURL, u.UpdatedAt).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", classify(err))
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, page models.Page) ([]models.User, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY username LIMIT $1 OFFSET $2`
	rows, err := s.db.QueryContext(ctx, query, limitArg(page), page.Skip)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

func (s *Store) Usernames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, username FROM users WHERE id = ANY($1::uuid[])`, uuidArray(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load usernames: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// groups and members

const groupColumns = `id, name, description, created_by, ledger_version, created_at, updated_at`

func scanGroup(row interface{ Scan(...any) error }) (*models.Group, error) {
	g := &models.Group{}
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedBy, &g.LedgerVersion, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Store) CreateGroup(ctx context.Context, g *models.Group, creator uuid.UUID) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	g.CreatedBy = creator
	g.CreatedAt = s.now()
	g.UpdatedAt = g.CreatedAt
	g.LedgerVersion = 0

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO groups (id, name, description, created_by, ledger_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $5)
	`, g.ID, g.Name, g.Description, creator, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", classify(err))
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
	`, g.ID, creator, models.RoleAdmin, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add group creator: %w", classify(err))
	}
	return classify(tx.Commit())
}

func (s *Store) GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	g, err := scanGroup(s.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = $1`, id))
	if err != nil {
		return nil, classify(err)
	}
	return g, nil
}

func (s *Store) ListGroupsForUser(ctx context.Context, userID uuid.UUID, page models.Page) ([]models.Group, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM group_members WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	query := `
		SELECT g.id, g.name, g.description, g.created_by, g.ledger_version, g.created_at, g.updated_at
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.created_at DESC, g.id
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limitArg(page), page.Skip)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, *g)
	}
	return groups, total, rows.Err()
}

func (s *Store) GroupIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT group_id FROM group_members WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const memberSelect = `
	SELECT m.group_id, m.user_id, m.role, m.joined_at, m.left_at, u.username
	FROM group_members m
	JOIN users u ON u.id = m.user_id
`

func scanMember(row interface{ Scan(...any) error }) (*models.Member, error) {
	m := &models.Member{}
	if err := row.Scan(&m.GroupID, &m.UserID, &m.Role, &m.JoinedAt, &m.LeftAt, &m.Username); err != nil {
		return nil, err
	}
	return m, nil
}

func getMember(ctx context.Context, q querier, groupID, userID uuid.UUID) (*models.Member, error) {
	m, err := scanMember(q.QueryRowContext(ctx, memberSelect+` WHERE m.group_id = $1 AND m.user_id = $2`, groupID, userID))
	if err != nil {
		return nil, classify(err)
	}
	return m, nil
}

func listMembers(ctx context.Context, q querier, groupID uuid.UUID, activeOnly bool) ([]models.Member, error) {
	query := memberSelect + ` WHERE m.group_id = $1`
	if activeOnly {
		query += ` AND m.left_at IS NULL`
	}
	query += ` ORDER BY m.joined_at, m.user_id`

	rows, err := q.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *Store) GetMember(ctx context.Context, groupID, userID uuid.UUID) (*models.Member, error) {
	return getMember(ctx, s.db, groupID, userID)
}

func (s *Store) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.Member, error) {
	if _, err := s.LedgerVersion(ctx, groupID); err != nil {
		return nil, err
	}
	return listMembers(ctx, s.db, groupID, true)
}

// ---------------------------------------------------------------------------
// ledger reads

const expenseColumns = `id, group_id, creator_id, title, description, total_amount, split_type, created_at, updated_at`

func scanExpense(row interface{ Scan(...any) error }) (*models.Expense, error) {
	e := &models.Expense{}
	err := row.Scan(&e.ID, &e.GroupID, &e.CreatorID, &e.Title, &e.Description, &e.TotalAmount, &e.SplitType, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// attachSplits loads the splits of expenses in their stored order.
func attachSplits(ctx context.Context, q querier, expenses []models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(expenses))
	index := make(map[uuid.UUID]int, len(expenses))
	for i := range expenses {
		ids[i] = expenses[i].ID
		index[expenses[i].ID] = i
		expenses[i].Splits = []models.Split{}
	}

	rows, err := q.QueryContext(ctx, `
		SELECT expense_id, user_id, amount
		FROM expense_splits
		WHERE expense_id = ANY($1::uuid[])
		ORDER BY expense_id, position
	`, uuidArray(ids))
	if err != nil {
		return fmt.Errorf("failed to load splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sp models.Split
		if err := rows.Scan(&sp.ExpenseID, &sp.UserID, &sp.Amount); err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		i := index[sp.ExpenseID]
		expenses[i].Splits = append(expenses[i].Splits, sp)
	}
	return rows.Err()
}

func getExpense(ctx context.Context, q querier, where string, args ...any) (*models.Expense, error) {
	e, err := scanExpense(q.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE `+where, args...))
	if err != nil {
		return nil, classify(err)
	}
	list := []models.Expense{*e}
	if err := attachSplits(ctx, q, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// readTx runs fn inside one REPEATABLE READ, READ ONLY transaction, so every
// statement fn issues sees the same committed state.
func (s *Store) readTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("failed to begin read: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return classify(tx.Commit())
}

func ledgerVersion(ctx context.Context, q querier, groupID uuid.UUID) (int64, error) {
	var v int64
	if err := q.QueryRowContext(ctx, `SELECT ledger_version FROM groups WHERE id = $1`, groupID).Scan(&v); err != nil {
		return 0, classify(err)
	}
	return v, nil
}

// GetExpense reads the expense row and its splits from one snapshot.
func (s *Store) GetExpense(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	var e *models.Expense
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		var err error
		e, err = getExpense(ctx, tx, `id = $1`, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListExpenses reads the count, the page and its splits from one snapshot.
func (s *Store) ListExpenses(ctx context.Context, groupID uuid.UUID, f models.ExpenseFilter, page models.Page) ([]models.Expense, int, error) {
	var (
		expenses []models.Expense
		total    int
	)
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		var err error
		expenses, total, err = listExpenses(ctx, tx, groupID, f, page)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

func listExpenses(ctx context.Context, q querier, groupID uuid.UUID, f models.ExpenseFilter, page models.Page) ([]models.Expense, int, error) {
	if _, err := ledgerVersion(ctx, q, groupID); err != nil {
		return nil, 0, err
	}

	conds := []string{"group_id = $1"}
	args := []any{groupID}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.CreatedBy != nil {
		add("creator_id = $%d", *f.CreatedBy)
	}
	if f.MinAmount != nil {
		add("total_amount >= $%d", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		add("total_amount <= $%d", *f.MaxAmount)
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM expenses WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		expenseColumns, where, len(args)+1, len(args)+2)
	rows, err := q.QueryContext(ctx, query, append(args, limitArg(page), page.Skip)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()
	if err := attachSplits(ctx, q, expenses); err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

const settlementColumns = `id, group_id, paid_by, paid_to, amount, note, created_by, settled_at`

func scanSettlement(row interface{ Scan(...any) error }) (*models.Settlement, error) {
	st := &models.Settlement{}
	err := row.Scan(&st.ID, &st.GroupID, &st.PaidBy, &st.PaidTo, &st.Amount, &st.Note, &st.CreatedBy, &st.SettledAt)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func getSettlement(ctx context.Context, q querier, where string, args ...any) (*models.Settlement, error) {
	st, err := scanSettlement(q.QueryRowContext(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE `+where, args...))
	if err != nil {
		return nil, classify(err)
	}
	return st, nil
}

func (s *Store) GetSettlement(ctx context.Context, id uuid.UUID) (*models.Settlement, error) {
	return getSettlement(ctx, s.db, `id = $1`, id)
}

// ListSettlements reads the count and the page from one snapshot.
func (s *Store) ListSettlements(ctx context.Context, groupID uuid.UUID, f models.SettlementFilter, page models.Page) ([]models.Settlement, int, error) {
	var (
		settlements []models.Settlement
		total       int
	)
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		var err error
		settlements, total, err = listSettlements(ctx, tx, groupID, f, page)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return settlements, total, nil
}

func listSettlements(ctx context.Context, q querier, groupID uuid.UUID, f models.SettlementFilter, page models.Page) ([]models.Settlement, int, error) {
	if _, err := ledgerVersion(ctx, q, groupID); err != nil {
		return nil, 0, err
	}

	conds := []string{"group_id = $1"}
	args := []any{groupID}
	if f.PaidBy != nil {
		args = append(args, *f.PaidBy)
		conds = append(conds, fmt.Sprintf("paid_by = $%d", len(args)))
	}
	if f.PaidTo != nil {
		args = append(args, *f.PaidTo)
		conds = append(conds, fmt.Sprintf("paid_to = $%d", len(args)))
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM settlements WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM settlements WHERE %s ORDER BY settled_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		settlementColumns, where, len(args)+1, len(args)+2)
	rows, err := q.QueryContext(ctx, query, append(args, limitArg(page), page.Skip)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	settlements := []models.Settlement{}
	for rows.Next() {
		st, err := scanSettlement(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, *st)
	}
	return settlements, total, rows.Err()
}

// loadSnapshot reads a whole ledger through q, which must already give a
// consistent view.
func loadSnapshot(ctx context.Context, q querier, g *models.Group) (*models.LedgerSnapshot, error) {
	members, err := listMembers(ctx, q, g.ID, false)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE group_id = $1 ORDER BY created_at, id`, g.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	var expenses []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := attachSplits(ctx, q, expenses); err != nil {
		return nil, err
	}

	rows, err = q.QueryContext(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE group_id = $1 ORDER BY settled_at, id`, g.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settlements: %w", err)
	}
	defer rows.Close()
	var settlements []models.Settlement
	for rows.Next() {
		st, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.LedgerSnapshot{
		Group:       *g,
		Version:     g.LedgerVersion,
		Members:     members,
		Expenses:    expenses,
		Settlements: settlements,
	}, nil
}

// Snapshot reads the group's ledger from one snapshot so every row comes from
// the same committed version.
func (s *Store) Snapshot(ctx context.Context, groupID uuid.UUID) (*models.LedgerSnapshot, error) {
	var snap *models.LedgerSnapshot
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		g, err := scanGroup(tx.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = $1`, groupID))
		if err != nil {
			return classify(err)
		}
		snap, err = loadSnapshot(ctx, tx, g)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) LedgerVersion(ctx context.Context, groupID uuid.UUID) (int64, error) {
	return ledgerVersion(ctx, s.db, groupID)
}

// ---------------------------------------------------------------------------
// notifications

const notificationColumns = `id, recipient_id, group_id, type, message, is_read, entity_type, entity_id, created_at`

func scanNotification(row interface{ Scan(...any) error }) (*models.Notification, error) {
	n := &models.Notification{}
	err := row.Scan(&n.ID, &n.RecipientID, &n.GroupID, &n.Type, &n.Message, &n.IsRead, &n.EntityType, &n.EntityID, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Store) ListNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, page models.Page) ([]models.Notification, int, error) {
	where := `recipient_id = $1`
	if unreadOnly {
		where += ` AND NOT is_read`
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE `+where, recipientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE ` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := s.db.QueryContext(ctx, query, recipientID, limitArg(page), page.Skip)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, *n)
	}
	return out, total, rows.Err()
}

func (s *Store) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	n, err := scanNotification(s.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		return nil, classify(err)
	}
	return n, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return requireRow(res)
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipientID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND NOT is_read`, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (s *Store) UnreadNotificationCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT is_read`, recipientID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

// requireRow reports storage.ErrNotFound when a statement touched no rows.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
