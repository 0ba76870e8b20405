package group

import (
	"sort"

	"github.com/fkhayef/groupledger/internal/models"
)

// countAdmins returns the number of active admins in members.
func countAdmins(members []models.Member) int {
	n := 0
	for _, m := range members {
		if m.Active() && m.IsAdmin() {
			n++
		}
	}
	return n
}

// successor picks the longest-standing active member, or nil.
func successor(members []models.Member) *models.Member {
	active := make([]models.Member, 0, len(members))
	for _, m := range members {
		if m.Active() {
			active = append(active, m)
		}
	}
	if len(active) == 0 {
		return nil
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].JoinedAt.Before(active[j].JoinedAt)
	})
	return &active[0]
}
