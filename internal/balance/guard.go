package balance

import (
	"context"
	"fmt"

	"github.com/fkhayef/groupledger/internal/apperr"
	"github.com/fkhayef/groupledger/internal/models"
	"github.com/fkhayef/groupledger/internal/storage"
)

// ErrDepartedBalance rejects a write that would leave a former member owing
// or being owed money. Former members can no longer settle.
var ErrDepartedBalance = apperr.Validation("change would leave a former member with an open balance")

// CheckDeparted recomputes the ledger inside tx, including tx's own changes,
// and fails if any departed member has a nonzero balance.
func CheckDeparted(ctx context.Context, tx storage.GroupTx) error {
	snap, err := tx.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}
	if !anyDeparted(snap.Members) {
		return nil
	}

	l, err := Compute(snap)
	if err != nil {
		return err
	}
	for i := range snap.Members {
		m := &snap.Members[i]
		if m.Active() {
			continue
		}
		if open := l.ForViewer(m.UserID); len(open) > 0 {
			name := m.Username
			if name == "" {
				name = m.UserID.String()
			}
			return fmt.Errorf("%w: %s", ErrDepartedBalance, name)
		}
	}
	return nil
}

func anyDeparted(members []models.Member) bool {
	for i := range members {
		if !members[i].Active() {
			return true
		}
	}
	return false
}
