package split

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/apperr"
	"github.com/fkhayef/groupledger/internal/models"
)

// Tolerance is the largest accepted gap between the sum of custom splits and
// the expense total.
const Tolerance models.Amount = 1

// SplitInput is one participant of a split. Amount is required for custom
// splits and ignored for equal splits.
type SplitInput struct {
	UserID uuid.UUID
	Amount *models.Amount
}

// Strategy is the interface that all split strategies must implement
type Strategy interface {
	// Calculate returns one split per participant, in participant order.
	// The creator's own share is included when the creator participates.
	Calculate(total models.Amount, participants []SplitInput) ([]models.Split, error)

	// Type returns the type identifier for this strategy
	Type() models.SplitType

	// Validate checks if the inputs are valid for this strategy
	Validate(total models.Amount, participants []SplitInput) error
}

// Factory creates split strategies based on the requested type
type Factory struct{}

// NewSplitStrategyFactory creates a new factory instance
func NewSplitStrategyFactory() *Factory {
	return &Factory{}
}

// Create returns the appropriate strategy implementation based on the type
func (f *Factory) Create(splitType models.SplitType) (Strategy, error) {
	switch splitType {
	case models.SplitEqual:
		return &EqualStrategy{}, nil
	case models.SplitCustom:
		return &CustomStrategy{}, nil
	default:
		return nil, apperr.Validation("unknown split type: %s", splitType)
	}
}

var (
	ErrNoParticipants     = apperr.Validation("at least one participant is required")
	ErrNonPositiveTotal   = apperr.Validation("total_amount must be positive")
	ErrNonPositiveSplit   = apperr.Validation("split amounts must be positive")
	ErrMissingAmount      = apperr.Validation("amount required for every participant of a custom split")
	ErrDuplicateUser      = apperr.Validation("each participant may appear only once")
	ErrMissingUser        = apperr.Validation("participant user_id is required")
	ErrShareTooSmall      = apperr.Validation("total_amount is too small to split between all participants")
	ErrSplitTotalMismatch = apperr.Validation("split amounts must sum to total_amount")
)

// checkParticipants holds the rules shared by every strategy.
func checkParticipants(total models.Amount, participants []SplitInput) error {
	if total <= 0 {
		return ErrNonPositiveTotal
	}
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	seen := make(map[uuid.UUID]struct{}, len(participants))
	for _, p := range participants {
		if p.UserID == uuid.Nil {
			return ErrMissingUser
		}
		if _, dup := seen[p.UserID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateUser, p.UserID)
		}
		seen[p.UserID] = struct{}{}
	}
	return nil
}
