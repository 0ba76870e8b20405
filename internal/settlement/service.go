package settlement

import (
	"context"
	"errors"
	"fmt"

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
	ErrSettlementNotFound = apperr.NotFound("settlement not found")
	ErrCannotSettleSelf   = apperr.Validation("cannot create settlement with yourself")
	ErrNonPositiveAmount  = apperr.Validation("amount must be positive")
	ErrNotPayer           = apperr.Authorization("only a group admin can record a payment made by someone else")
	ErrNotAllowed         = apperr.Authorization("only the payer, the recorder or a group admin can delete this settlement")
	ErrOverpayment        = apperr.Validation("settlement exceeds the outstanding debt")
)

// Service handles settlement business logic
type Service struct {
	store  storage.Store
	writer *ledger.Writer
}

// NewService creates a new settlement service
func NewService(writer *ledger.Writer) *Service {
	return &Service{store: writer.Store(), writer: writer}
}

// CreateSettlement records that PaidBy paid PaidTo. The amount may not exceed
// what PaidBy owes PaidTo at the moment the group is locked.
func (s *Service) CreateSettlement(ctx context.Context, viewerID uuid.UUID, req *CreateSettlementRequest) (*SettlementResponse, error) {
	paidBy := viewerID
	if req.PaidBy != nil && *req.PaidBy != uuid.Nil {
		paidBy = *req.PaidBy
	}
	if paidBy == req.PaidTo {
		return nil, ErrCannotSettleSelf
	}
	if req.Amount <= 0 {
		return nil, ErrNonPositiveAmount
	}

	var (
		created models.Settlement
		actor   *models.Member
	)
	op := ledger.Op{Entity: "settlement", Name: "create"}
	err := s.writer.Write(ctx, req.GroupID, op, func(ctx context.Context, tx storage.GroupTx) (*events.Event, error) {
		var err error
		if actor, err = ledger.Actor(ctx, tx, viewerID); err != nil {
			return nil, err
		}
		if paidBy != viewerID && !actor.IsAdmin() {
			return nil, ErrNotPayer
		}
		payer, err := ledger.Party(ctx, tx, paidBy)
		if err != nil {
			return nil, err
		}
		payee, err := ledger.Party(ctx, tx, req.PaidTo)
		if err != nil {
			return nil, err
		}

		owed, err := outstanding(ctx, tx, paidBy, req.PaidTo)
		if err != nil {
			return nil, err
		}
		if req.Amount > owed {
			return nil, fmt.Errorf("%w: %s owes %s %s", ErrOverpayment, payer.Username, payee.Username, owed)
		}

		st := &models.Settlement{
			PaidBy:    paidBy,
			PaidTo:    req.PaidTo,
			Amount:    req.Amount,
			Note:      req.Note,
			CreatedBy: viewerID,
		}
		if err := tx.InsertSettlement(ctx, st); err != nil {
			return nil, fmt.Errorf("failed to create settlement: %w", err)
		}

		group := tx.Group()
		for _, uid := range counterparties(viewerID, st) {
			msg := fmt.Sprintf("%s paid you %s in %s", payer.Username, st.Amount, group.Name)
			if uid == st.PaidBy {
				msg = fmt.Sprintf("%s recorded your payment of %s to %s in %s", actor.Username, st.Amount, payee.Username, group.Name)
			}
			if err := notify(ctx, tx, uid, models.NotificationSettlementAdded, msg, st.ID); err != nil {
				return nil, err
			}
		}

		created = *st
		return newEvent(events.SettlementCreated, group, viewerID, st), nil
	})
	if err != nil {
		return nil, err
	}
	return s.present(ctx, actor, &created)
}

// GetSettlement retrieves one settlement of a group
func (s *Service) GetSettlement(ctx context.Context, groupID, id, viewerID uuid.UUID) (*SettlementResponse, error) {
	viewer, err := ledger.Reader(ctx, s.store, groupID, viewerID)
	if err != nil {
		return nil, err
	}
	st, err := s.store.GetSettlement(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSettlementNotFound
		}
		return nil, err
	}
	if st.GroupID != groupID {
		return nil, ErrSettlementNotFound
	}
	return s.present(ctx, viewer, st)
}

// ListSettlements retrieves a page of a group's settlements, newest first
func (s *Service) ListSettlements(ctx context.Context, groupID, viewerID uuid.UUID, req ListSettlementsRequest) ([]*SettlementResponse, int, error) {
	viewer, err := ledger.Reader(ctx, s.store, groupID, viewerID)
	if err != nil {
		return nil, 0, err
	}
	list, total, err := s.store.ListSettlements(ctx, groupID, req.Filter, req.Page)
	if err != nil {
		return nil, 0, err
	}
	out, err := s.presentAll(ctx, viewer, list)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// DeleteSettlement removes a settlement, restoring the debt it paid off
func (s *Service) DeleteSettlement(ctx context.Context, groupID, id, viewerID uuid.UUID) error {
	op := ledger.Op{Entity: "settlement", Name: "delete"}
	return s.writer.Write(ctx, groupID, op, func(ctx context.Context, tx storage.GroupTx) (*events.Event, error) {
		st, err := tx.GetSettlement(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, ErrSettlementNotFound
			}
			return nil, err
		}
		if st.GroupID != groupID {
			return nil, ErrSettlementNotFound
		}
		actor, err := ledger.Actor(ctx, tx, viewerID)
		if err != nil {
			return nil, err
		}
		if !canDelete(actor, st) {
			return nil, ErrNotAllowed
		}
		if err := tx.DeleteSettlement(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to delete settlement: %w", err)
		}
		if err := balance.CheckDeparted(ctx, tx); err != nil {
			return nil, err
		}

		group := tx.Group()
		msg := fmt.Sprintf("%s deleted a payment of %s in %s", actor.Username, st.Amount, group.Name)
		for _, uid := range counterparties(viewerID, st) {
			if err := notify(ctx, tx, uid, models.NotificationSettlementDeleted, msg, st.ID); err != nil {
				return nil, err
			}
		}
		return newEvent(events.SettlementDeleted, group, viewerID, st), nil
	})
}

// outstanding returns what debtor owes creditor in the locked ledger.
func outstanding(ctx context.Context, tx storage.GroupTx, debtor, creditor uuid.UUID) (models.Amount, error) {
	snap, err := tx.Snapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read ledger: %w", err)
	}
	l, err := balance.Compute(snap)
	if err != nil {
		return 0, err
	}
	owed := l.Net(creditor, debtor)
	if owed < 0 {
		return 0, nil
	}
	return owed, nil
}

// counterparties lists the parties of st other than the actor.
func counterparties(actorID uuid.UUID, st *models.Settlement) []uuid.UUID {
	var out []uuid.UUID
	for _, id := range []uuid.UUID{st.PaidTo, st.PaidBy} {
		if id != actorID {
			out = append(out, id)
		}
	}
	return out
}

func notify(ctx context.Context, tx storage.GroupTx, to uuid.UUID, typ models.NotificationType, msg string, settlementID uuid.UUID) error {
	groupID := tx.Group().ID
	n := &models.Notification{
		RecipientID: to,
		GroupID:     &groupID,
		Type:        typ,
		Message:     msg,
		EntityType:  "settlement",
		EntityID:    &settlementID,
	}
	if err := tx.Notify(ctx, n); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

func newEvent(typ string, group *models.Group, actorID uuid.UUID, st *models.Settlement) *events.Event {
	return &events.Event{
		Type:          typ,
		GroupID:       group.ID,
		ActorID:       actorID,
		EntityID:      st.ID,
		Amount:        st.Amount,
		LedgerVersion: group.LedgerVersion + 1,
	}
}

func (s *Service) present(ctx context.Context, viewer *models.Member, st *models.Settlement) (*SettlementResponse, error) {
	out, err := s.presentAll(ctx, viewer, []models.Settlement{*st})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (s *Service) presentAll(ctx context.Context, viewer *models.Member, list []models.Settlement) ([]*SettlementResponse, error) {
	ids := make([]uuid.UUID, 0, 2*len(list))
	for _, st := range list {
		ids = append(ids, st.PaidBy, st.PaidTo)
	}
	names, err := s.store.Usernames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load usernames: %w", err)
	}

	out := make([]*SettlementResponse, len(list))
	for i := range list {
		out[i] = toResponse(&list[i], viewer, names)
	}
	return out, nil
}
