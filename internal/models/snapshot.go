package models

import "github.com/google/uuid"

// LedgerSnapshot is a consistent view of one group's ledger at Version.
type LedgerSnapshot struct {
	Group       Group
	Version     int64
	Members     []Member
	Expenses    []Expense
	Settlements []Settlement
}

// Member returns the membership row for userID, if any.
func (s *LedgerSnapshot) Member(userID uuid.UUID) *Member {
	for i := range s.Members {
		if s.Members[i].UserID == userID {
			return &s.Members[i]
		}
	}
	return nil
}
