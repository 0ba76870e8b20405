package expense

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/apperr"
	"github.com/fkhayef/groupledger/internal/balance"
	"github.com/fkhayef/groupledger/internal/events"
	"github.com/fkhayef/groupledger/internal/expense/split"
	"github.com/fkhayef/groupledger/internal/ledger"
	"github.com/fkhayef/groupledger/internal/models"
	"github.com/fkhayef/groupledger/internal/storage"
)

// Common errors
var (
	ErrExpenseNotFound = apperr.NotFound("expense not found")
	ErrNotAllowed      = apperr.Authorization("only the creator or a group admin can modify this expense")
	ErrEmptyTitle      = apperr.Validation("title must not be empty")
	ErrAmountRange     = apperr.Validation("min_amount must not exceed max_amount")
)

// Service handles expense business logic
type Service struct {
	store        storage.Store
	writer       *ledger.Writer
	splitFactory *split.Factory // Factory pattern for creating split strategies
}

// NewService creates a new expense service with dependencies injected
func NewService(writer *ledger.Writer, splitFactory *split.Factory) *Service {
	return &Service{
		store:        writer.Store(),
		writer:       writer,
		splitFactory: splitFactory,
	}
}

// CreateExpense records an expense fronted by creatorID and split between
// the participants using the requested strategy.
func (s *Service) CreateExpense(ctx context.Context, groupID, creatorID uuid.UUID, req *CreateExpenseRequest) (*ExpenseResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	// Use FACTORY PATTERN to get the appropriate split strategy
	strategy, err := s.splitFactory.Create(req.SplitType)
	if err != nil {
		return nil, err
	}

	var (
		created models.Expense
		actor   *models.Member
	)
	op := ledger.Op{Entity: "expense", Name: "create"}
	err = s.writer.Write(ctx, groupID, op, func(ctx context.Context, tx storage.GroupTx) (*events.Event, error) {
		var err error
		if actor, err = ledger.Actor(ctx, tx, creatorID); err != nil {
			return nil, err
		}

		participants := toSplitInputs(req.Splits)
		if strategy.Type() == models.SplitEqual && len(participants) == 0 {
			if participants, err = everyone(ctx, tx); err != nil {
				return nil, err
			}
		}
		splits, err := calculate(ctx, tx, strategy, req.TotalAmount, participants, true)
		if err != nil {
			return nil, err
		}

		e := &models.Expense{
			CreatorID:   creatorID,
			Title:       title,
			Description: req.Description,
			TotalAmount: req.TotalAmount,
			SplitType:   strategy.Type(),
			Splits:      splits,
		}
		if err := tx.InsertExpense(ctx, e); err != nil {
			return nil, fmt.Errorf("failed to create expense: %w", err)
		}

		group := tx.Group()
		for _, sp := range e.Splits {
			if sp.UserID == creatorID {
				continue
			}
			msg := fmt.Sprintf("%s added %q in %s: your share is %s", actor.Username, e.Title, group.Name, sp.Amount)
			if err := notify(ctx, tx, sp.UserID, models.NotificationExpenseAdded, msg, e.ID); err != nil {
				return nil, err
			}
		}

		created = *e
		return newEvent(events.ExpenseCreated, group, creatorID, e), nil
	})
	if err != nil {
		return nil, err
	}
	return s.present(ctx, actor, &created)
}

// GetExpenseByID retrieves an expense with its splits
func (s *Service) GetExpenseByID(ctx context.Context, id, viewerID uuid.UUID) (*ExpenseResponse, error) {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, err
	}
	viewer, err := ledger.Reader(ctx, s.store, e.GroupID, viewerID)
	if err != nil {
		return nil, err
	}
	return s.present(ctx, viewer, e)
}

// ListExpensesByGroupID retrieves a page of a group's expenses, newest first
func (s *Service) ListExpensesByGroupID(ctx context.Context, groupID, viewerID uuid.UUID, req ListExpensesRequest) ([]*ExpenseResponse, int, error) {
	f := req.Filter
	if f.MinAmount != nil && f.MaxAmount != nil && *f.MinAmount > *f.MaxAmount {
		return nil, 0, ErrAmountRange
	}
	viewer, err := ledger.Reader(ctx, s.store, groupID, viewerID)
	if err != nil {
		return nil, 0, err
	}

	list, total, err := s.store.ListExpenses(ctx, groupID, f, req.Page)
	if err != nil {
		return nil, 0, err
	}
	out, err := s.presentAll(ctx, viewer, list)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateExpense patches an expense. The split set is recomputed for equal
// splits and re-validated against the new total for custom splits.
func (s *Service) UpdateExpense(ctx context.Context, id, viewerID uuid.UUID, req *UpdateExpenseRequest) (*ExpenseResponse, error) {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, ErrEmptyTitle
	}
	existing, err := s.store.GetExpense(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, err
	}

	var (
		updated models.Expense
		actor   *models.Member
	)
	op := ledger.Op{Entity: "expense", Name: "update"}
	err = s.writer.Write(ctx, existing.GroupID, op, func(ctx context.Context, tx storage.GroupTx) (*events.Event, error) {
		current, err := tx.GetExpense(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, ErrExpenseNotFound
			}
			return nil, err
		}
		if actor, err = ledger.Actor(ctx, tx, viewerID); err != nil {
			return nil, err
		}
		if !canModify(actor, current) {
			return nil, ErrNotAllowed
		}

		next := *current
		if req.Title != nil {
			next.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			next.Description = req.Description
		}
		if req.TotalAmount != nil {
			next.TotalAmount = *req.TotalAmount
		}
		if req.SplitType != nil {
			next.SplitType = *req.SplitType
		}
		strategy, err := s.splitFactory.Create(next.SplitType)
		if err != nil {
			return nil, err
		}

		// Shares already on the expense stay valid even if their user has
		// since left; a new split set must name active members only.
		participants := inputsFromSplits(current.Splits)
		replaced := len(req.Splits) > 0
		if replaced {
			participants = toSplitInputs(req.Splits)
		}
		if next.Splits, err = calculate(ctx, tx, strategy, next.TotalAmount, participants, replaced); err != nil {
			return nil, err
		}
		if err := tx.UpdateExpense(ctx, &next); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, ErrExpenseNotFound
			}
			return nil, fmt.Errorf("failed to update expense: %w", err)
		}
		if err := balance.CheckDeparted(ctx, tx); err != nil {
			return nil, err
		}

		group := tx.Group()
		msg := fmt.Sprintf("%s updated %q in %s", actor.Username, next.Title, group.Name)
		for _, uid := range recipients(viewerID, next.CreatorID, current.Splits, next.Splits) {
			if err := notify(ctx, tx, uid, models.NotificationExpenseUpdated, msg, next.ID); err != nil {
				return nil, err
			}
		}

		updated = next
		return newEvent(events.ExpenseUpdated, group, viewerID, &next), nil
	})
	if err != nil {
		return nil, err
	}
	return s.present(ctx, actor, &updated)
}

// DeleteExpense removes an expense and its splits from the group's ledger
func (s *Service) DeleteExpense(ctx context.Context, groupID, id, viewerID uuid.UUID) error {
	op := ledger.Op{Entity: "expense", Name: "delete"}
	return s.writer.Write(ctx, groupID, op, func(ctx context.Context, tx storage.GroupTx) (*events.Event, error) {
		e, err := tx.GetExpense(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, ErrExpenseNotFound
			}
			return nil, err
		}
		if e.GroupID != groupID {
			return nil, ErrExpenseNotFound
		}
		actor, err := ledger.Actor(ctx, tx, viewerID)
		if err != nil {
			return nil, err
		}
		if !canModify(actor, e) {
			return nil, ErrNotAllowed
		}
		if err := tx.DeleteExpense(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to delete expense: %w", err)
		}
		if err := balance.CheckDeparted(ctx, tx); err != nil {
			return nil, err
		}

		group := tx.Group()
		msg := fmt.Sprintf("%s deleted %q in %s", actor.Username, e.Title, group.Name)
		for _, uid := range recipients(viewerID, e.CreatorID, e.Splits) {
			if err := notify(ctx, tx, uid, models.NotificationExpenseDeleted, msg, e.ID); err != nil {
				return nil, err
			}
		}
		return newEvent(events.ExpenseDeleted, group, viewerID, e), nil
	})
}

// everyone returns the active members of the group, earliest joined first.
func everyone(ctx context.Context, tx storage.GroupTx) ([]split.SplitInput, error) {
	members, err := tx.ActiveMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	sortByJoined(members)
	out := make([]split.SplitInput, len(members))
	for i, m := range members {
		out[i] = split.SplitInput{UserID: m.UserID}
	}
	return out, nil
}

// calculate validates the participants and runs the strategy. When
// checkMembers is set every participant must be an active member.
func calculate(ctx context.Context, tx storage.GroupTx, strategy split.Strategy, total models.Amount, participants []split.SplitInput, checkMembers bool) ([]models.Split, error) {
	// Use STRATEGY PATTERN - calculate splits using the selected strategy
	if err := strategy.Validate(total, participants); err != nil {
		return nil, err
	}
	if checkMembers {
		for _, p := range participants {
			if _, err := ledger.Party(ctx, tx, p.UserID); err != nil {
				return nil, err
			}
		}
	}
	return strategy.Calculate(total, participants)
}

// recipients lists who hears about a change: the creator and every split
// user, except the actor.
func recipients(actorID, creatorID uuid.UUID, sets ...[]models.Split) []uuid.UUID {
	creator := []models.Split{{UserID: creatorID}}
	var out []uuid.UUID
	for _, id := range participantIDs(append([][]models.Split{creator}, sets...)...) {
		if id != actorID {
			out = append(out, id)
		}
	}
	return out
}

func notify(ctx context.Context, tx storage.GroupTx, to uuid.UUID, typ models.NotificationType, msg string, expenseID uuid.UUID) error {
	groupID := tx.Group().ID
	n := &models.Notification{
		RecipientID: to,
		GroupID:     &groupID,
		Type:        typ,
		Message:     msg,
		EntityType:  "expense",
		EntityID:    &expenseID,
	}
	if err := tx.Notify(ctx, n); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

func newEvent(typ string, group *models.Group, actorID uuid.UUID, e *models.Expense) *events.Event {
	return &events.Event{
		Type:          typ,
		GroupID:       group.ID,
		ActorID:       actorID,
		EntityID:      e.ID,
		Amount:        e.TotalAmount,
		LedgerVersion: group.LedgerVersion + 1,
	}
}

func (s *Service) present(ctx context.Context, viewer *models.Member, e *models.Expense) (*ExpenseResponse, error) {
	out, err := s.presentAll(ctx, viewer, []models.Expense{*e})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (s *Service) presentAll(ctx context.Context, viewer *models.Member, list []models.Expense) ([]*ExpenseResponse, error) {
	var ids []uuid.UUID
	for _, e := range list {
		ids = append(ids, e.CreatorID)
		for _, sp := range e.Splits {
			ids = append(ids, sp.UserID)
		}
	}
	names, err := s.store.Usernames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load usernames: %w", err)
	}

	out := make([]*ExpenseResponse, len(list))
	for i := range list {
		out[i] = toResponse(&list[i], viewer, names)
	}
	return out, nil
}
