package split

import "github.com/fkhayef/groupledger/internal/models"

// =============================================================================
// EQUAL SPLIT STRATEGY
// Divides the total equally. When the total does not divide evenly, the
// earliest-listed participants each absorb one extra cent.
// =============================================================================

// EqualStrategy implements the Strategy interface for equal splits
type EqualStrategy struct{}

// Type returns the split type identifier
func (s *EqualStrategy) Type() models.SplitType {
	return models.SplitEqual
}

// Validate checks if the inputs are valid for an equal split
func (s *EqualStrategy) Validate(total models.Amount, participants []SplitInput) error {
	if err := checkParticipants(total, participants); err != nil {
		return err
	}
	if total < models.Amount(len(participants)) {
		return ErrShareTooSmall
	}
	return nil
}

// Calculate gives every participant total/n cents and hands the remaining
// total%n cents to the first participants, one each.
func (s *EqualStrategy) Calculate(total models.Amount, participants []SplitInput) ([]models.Split, error) {
	if err := s.Validate(total, participants); err != nil {
		return nil, err
	}

	n := models.Amount(len(participants))
	share, remainder := total/n, total%n

	out := make([]models.Split, len(participants))
	for i, p := range participants {
		amount := share
		if models.Amount(i) < remainder {
			amount++
		}
		out[i] = models.Split{UserID: p.UserID, Amount: amount}
	}
	return out, nil
}
