package split

import (
	"fmt"

	"github.com/fkhayef/groupledger/internal/models"
)

// =============================================================================
// CUSTOM SPLIT STRATEGY
// Each participant owes a specific amount; the amounts must sum to the total
// within Tolerance.
// =============================================================================

// CustomStrategy implements the Strategy interface for custom amount splits
type CustomStrategy struct{}

// Type returns the split type identifier
func (s *CustomStrategy) Type() models.SplitType {
	return models.SplitCustom
}

// Validate checks if the inputs are valid for a custom split
func (s *CustomStrategy) Validate(total models.Amount, participants []SplitInput) error {
	if err := checkParticipants(total, participants); err != nil {
		return err
	}

	var sum models.Amount
	for _, p := range participants {
		if p.Amount == nil {
			return ErrMissingAmount
		}
		if *p.Amount <= 0 {
			return ErrNonPositiveSplit
		}
		sum += *p.Amount
	}

	if (sum - total).Abs() > Tolerance {
		return fmt.Errorf("%w: splits sum to %s, total is %s", ErrSplitTotalMismatch, sum, total)
	}
	return nil
}

// Calculate returns the amounts as given.
func (s *CustomStrategy) Calculate(total models.Amount, participants []SplitInput) ([]models.Split, error) {
	if err := s.Validate(total, participants); err != nil {
		return nil, err
	}

	out := make([]models.Split, len(participants))
	for i, p := range participants {
		out[i] = models.Split{UserID: p.UserID, Amount: *p.Amount}
	}
	return out, nil
}
