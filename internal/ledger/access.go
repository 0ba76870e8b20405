package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/apperr"
	"github.com/fkhayef/groupledger/internal/models"
	"github.com/fkhayef/groupledger/internal/storage"
)

// Access errors shared by the ledger services.
var (
	ErrNotMember = apperr.Authorization("you are not a member of this group")
	ErrNotAdmin  = apperr.Authorization("only a group admin can do this")
)

// Reader checks that userID may read the group's ledger. Departed members
// keep read access to the history they took part in.
func Reader(ctx context.Context, store storage.Store, groupID, userID uuid.UUID) (*models.Member, error) {
	if _, err := store.GetGroup(ctx, groupID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	m, err := store.GetMember(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotMember
		}
		return nil, err
	}
	return m, nil
}

// Actor returns the caller's membership inside a write, which must be active.
func Actor(ctx context.Context, tx storage.GroupTx, userID uuid.UUID) (*models.Member, error) {
	m, err := tx.Member(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotMember
		}
		return nil, err
	}
	if !m.Active() {
		return nil, ErrNotMember
	}
	return m, nil
}

// Party checks that userID, named in a ledger entry, is an active member.
func Party(ctx context.Context, tx storage.GroupTx, userID uuid.UUID) (*models.Member, error) {
	m, err := tx.Member(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Validation("user %s is not a member of this group", userID)
		}
		return nil, err
	}
	if !m.Active() {
		return nil, apperr.Validation("user %s is no longer a member of this group", userID)
	}
	return m, nil
}
