package balance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/fkhayef/groupledger/internal/apperr"
	"github.com/fkhayef/groupledger/internal/ledger"
	"github.com/fkhayef/groupledger/internal/metrics"
	"github.com/fkhayef/groupledger/internal/storage"
)

// Common errors
var (
	ErrGroupNotFound  = ledger.ErrGroupNotFound
	ErrNotMember      = ledger.ErrNotMember
	ErrMemberNotFound = apperr.NotFound("user is not a member of this group")
)

// maxConcurrentGroups bounds the fan-out of UserBalances.
const maxConcurrentGroups = 8

// Service answers balance queries. Ledgers are cached per group and tagged
// with the ledger version they were computed from, so a cached ledger is only
// served while the group's version is unchanged.
type Service struct {
	store   storage.Store
	cache   *lru.Cache[uuid.UUID, *Ledger]
	flight  singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewService creates a balance service caching up to cacheSize groups.
func NewService(store storage.Store, cacheSize int, m *metrics.Metrics, logger *slog.Logger) (*Service, error) {
	if cacheSize < 1 {
		cacheSize = 1
	}
	cache, err := lru.New[uuid.UUID, *Ledger](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create balance cache: %w", err)
	}
	return &Service{store: store, cache: cache, metrics: m, logger: logger}, nil
}

// Invalidate drops the cached ledger of a group. Writers call it after commit.
func (s *Service) Invalidate(groupID uuid.UUID) {
	s.cache.Remove(groupID)
}

// Ledger returns the current balances of a group.
func (s *Service) Ledger(ctx context.Context, groupID uuid.UUID) (*Ledger, error) {
	version, err := s.store.LedgerVersion(ctx, groupID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	if l, ok := s.cache.Get(groupID); ok && l.Version == version {
		s.metrics.BalanceCache(true)
		return l, nil
	}
	s.metrics.BalanceCache(false)

	key := fmt.Sprintf("%s@%d", groupID, version)
	v, err, _ := s.flight.Do(key, func() (any, error) {
		return s.compute(context.WithoutCancel(ctx), groupID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Ledger), nil
}

func (s *Service) compute(ctx context.Context, groupID uuid.UUID) (*Ledger, error) {
	start := time.Now()
	snap, err := s.store.Snapshot(ctx, groupID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	l, err := Compute(snap)
	if err != nil {
		s.logger.Error("ledger integrity check failed", "group_id", groupID, "version", snap.Version, "error", err)
		return nil, err
	}
	s.metrics.BalanceComputed(time.Since(start))

	if cached, ok := s.cache.Peek(groupID); !ok || cached.Version <= l.Version {
		s.cache.Add(groupID, l)
	}
	return l, nil
}

// checkViewer allows current and former members to read a group's balances.
func (s *Service) checkViewer(ctx context.Context, groupID, viewerID uuid.UUID) error {
	_, err := ledger.Reader(ctx, s.store, groupID, viewerID)
	return err
}

// GroupBalances returns the viewer's nonzero balances within one group.
func (s *Service) GroupBalances(ctx context.Context, groupID, viewerID uuid.UUID) ([]*PairwiseBalance, error) {
	if err := s.checkViewer(ctx, groupID, viewerID); err != nil {
		return nil, err
	}
	l, err := s.Ledger(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.present(ctx, []*Ledger{l}, viewerID)
}

// UserBalances returns the user's nonzero balances in every group they
// belong or belonged to, one entry per (group, other user).
func (s *Service) UserBalances(ctx context.Context, userID uuid.UUID) ([]*PairwiseBalance, error) {
	groupIDs, err := s.store.GroupIDsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ledgers := make([]*Ledger, len(groupIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentGroups)
	for i, id := range groupIDs {
		g.Go(func() error {
			l, err := s.Ledger(gctx, id)
			if err != nil {
				return fmt.Errorf("group %s: %w", id, err)
			}
			ledgers[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s.present(ctx, ledgers, userID)
}

// PairBalance returns the balance between the viewer and one other member.
// The amount may be zero.
func (s *Service) PairBalance(ctx context.Context, groupID, viewerID, otherID uuid.UUID) (*PairwiseBalance, error) {
	if err := s.checkViewer(ctx, groupID, viewerID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetMember(ctx, groupID, otherID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	l, err := s.Ledger(ctx, groupID)
	if err != nil {
		return nil, err
	}
	names, err := s.store.Usernames(ctx, []uuid.UUID{otherID})
	if err != nil {
		return nil, err
	}
	return newPairwiseBalance(l, l.Between(viewerID, otherID), names), nil
}

// SettleUp suggests transfers that clear every balance in the group.
func (s *Service) SettleUp(ctx context.Context, groupID, viewerID uuid.UUID) ([]*TransferResponse, error) {
	if err := s.checkViewer(ctx, groupID, viewerID); err != nil {
		return nil, err
	}
	l, err := s.Ledger(ctx, groupID)
	if err != nil {
		return nil, err
	}
	transfers := l.SettleUp()

	ids := make([]uuid.UUID, 0, 2*len(transfers))
	for _, t := range transfers {
		ids = append(ids, t.From, t.To)
	}
	names, err := s.store.Usernames(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*TransferResponse, len(transfers))
	for i, t := range transfers {
		out[i] = &TransferResponse{
			From:         t.From,
			FromUsername: names[t.From],
			To:           t.To,
			ToUsername:   names[t.To],
			Amount:       t.Amount,
		}
	}
	return out, nil
}

func (s *Service) present(ctx context.Context, ledgers []*Ledger, viewerID uuid.UUID) ([]*PairwiseBalance, error) {
	type entry struct {
		ledger  *Ledger
		balance Balance
	}
	var entries []entry
	var ids []uuid.UUID
	for _, l := range ledgers {
		for _, b := range l.ForViewer(viewerID) {
			entries = append(entries, entry{l, b})
			ids = append(ids, b.OtherUserID)
		}
	}

	names, err := s.store.Usernames(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*PairwiseBalance, len(entries))
	for i, e := range entries {
		out[i] = newPairwiseBalance(e.ledger, e.balance, names)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].GroupName != out[j].GroupName {
			return out[i].GroupName < out[j].GroupName
		}
		return out[i].OtherUsername < out[j].OtherUsername
	})
	return out, nil
}
