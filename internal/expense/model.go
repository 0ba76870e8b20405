package expense

import (
	"sort"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/expense/split"
	"github.com/fkhayef/groupledger/internal/models"
)

// SplitParticipant is one entry of the splits array in a request
type SplitParticipant struct {
	UserID uuid.UUID      `json:"user_id" validate:"required"`
	Amount *models.Amount `json:"amount,omitempty" swaggertype:"number"` // required for custom splits
}

// ToSplitInput converts to the split package's input type
func (p *SplitParticipant) ToSplitInput() split.SplitInput {
	if p == nil {
		return split.SplitInput{}
	}
	return split.SplitInput{UserID: p.UserID, Amount: p.Amount}
}

func toSplitInputs(ps []*SplitParticipant) []split.SplitInput {
	out := make([]split.SplitInput, len(ps))
	for i, p := range ps {
		out[i] = p.ToSplitInput()
	}
	return out
}

// inputsFromSplits rebuilds strategy input from stored splits, keeping order.
func inputsFromSplits(splits []models.Split) []split.SplitInput {
	out := make([]split.SplitInput, len(splits))
	for i, s := range splits {
		amount := s.Amount
		out[i] = split.SplitInput{UserID: s.UserID, Amount: &amount}
	}
	return out
}

// participantIDs returns the distinct users of one or more split sets.
func participantIDs(sets ...[]models.Split) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, set := range sets {
		for _, s := range set {
			if _, ok := seen[s.UserID]; ok {
				continue
			}
			seen[s.UserID] = struct{}{}
			ids = append(ids, s.UserID)
		}
	}
	return ids
}

// canModify reports whether member may edit or delete e.
func canModify(member *models.Member, e *models.Expense) bool {
	if member == nil || !member.Active() {
		return false
	}
	return member.UserID == e.CreatorID || member.IsAdmin()
}

func sortByJoined(members []models.Member) {
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
}
