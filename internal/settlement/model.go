package settlement

import (
	"github.com/fkhayef/groupledger/internal/models"
)

// canDelete reports whether member may delete st: the payer, whoever
// recorded it, or a group admin.
func canDelete(member *models.Member, st *models.Settlement) bool {
	if member == nil || !member.Active() {
		return false
	}
	return member.UserID == st.PaidBy || member.UserID == st.CreatedBy || member.IsAdmin()
}
