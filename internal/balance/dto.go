package balance

import (
	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/models"
)

// PairwiseBalance is one nonzero balance between the viewer and another
// member of a group.
type PairwiseBalance struct {
	GroupID       uuid.UUID     `json:"group_id"`
	GroupName     string        `json:"group_name"`
	OtherUserID   uuid.UUID     `json:"other_user_id"`
	OtherUsername string        `json:"other_user_name"`
	NetAmount     models.Amount `json:"net_amount" swaggertype:"number"`
	Direction     Direction     `json:"direction" enums:"owes_you,you_owe"`
}

// TransferResponse is a suggested settlement.
type TransferResponse struct {
	From         uuid.UUID     `json:"from"`
	FromUsername string        `json:"from_username"`
	To           uuid.UUID     `json:"to"`
	ToUsername   string        `json:"to_username"`
	Amount       models.Amount `json:"amount" swaggertype:"number"`
}

func newPairwiseBalance(l *Ledger, b Balance, names map[uuid.UUID]string) *PairwiseBalance {
	return &PairwiseBalance{
		GroupID:       l.GroupID,
		GroupName:     l.GroupName,
		OtherUserID:   b.OtherUserID,
		OtherUsername: names[b.OtherUserID],
		NetAmount:     b.NetAmount,
		Direction:     b.Direction,
	}
}
