// Package balance derives pairwise net balances from a group's ledger and
// serves them to callers.
package balance

import (
	"bytes"
	"sort"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/apperr"
	"github.com/fkhayef/groupledger/internal/models"
)

// Direction is a balance seen from the viewer's side.
type Direction string

const (
	OwesYou Direction = "owes_you"
	YouOwe  Direction = "you_owe"
)

// pairKey orders the two users so each unordered pair has exactly one entry.
type pairKey struct{ lo, hi uuid.UUID }

func less(a, b uuid.UUID) bool { return bytes.Compare(a[:], b[:]) < 0 }

func keyOf(a, b uuid.UUID) (pairKey, bool) {
	if less(a, b) {
		return pairKey{a, b}, false
	}
	return pairKey{b, a}, true
}

// Ledger holds the net balance of every pair of users in one group.
// It is immutable once computed.
type Ledger struct {
	GroupID   uuid.UUID
	GroupName string
	Version   int64

	// net[{lo,hi}] > 0 means hi owes lo.
	net     map[pairKey]models.Amount
	members []uuid.UUID
}

// Pair is one nonzero pairwise balance: B owes A Amount.
type Pair struct {
	A, B   uuid.UUID
	Amount models.Amount
}

// Balance is a nonzero balance against another user, relative to a viewer.
type Balance struct {
	OtherUserID uuid.UUID
	NetAmount   models.Amount
	Direction   Direction
}

// Transfer is a suggested payment that moves the group toward zero.
type Transfer struct {
	From   uuid.UUID
	To     uuid.UUID
	Amount models.Amount
}

// Compute builds the ledger from scratch. It has no side effects, so two
// calls on the same snapshot return equal ledgers.
//
// Every split of an expense makes its user owe the creator the split amount;
// a creator's own split is ignored. A settlement reduces what paid_by owes
// paid_to. Data that breaks the ledger invariants returns an integrity error.
func Compute(snap *models.LedgerSnapshot) (*Ledger, error) {
	l := &Ledger{
		GroupID:   snap.Group.ID,
		GroupName: snap.Group.Name,
		Version:   snap.Version,
		net:       make(map[pairKey]models.Amount),
	}

	known := make(map[uuid.UUID]struct{}, len(snap.Members))
	for _, m := range snap.Members {
		known[m.UserID] = struct{}{}
		l.members = append(l.members, m.UserID)
	}
	sort.Slice(l.members, func(i, j int) bool { return less(l.members[i], l.members[j]) })

	isMember := func(id uuid.UUID) bool {
		_, ok := known[id]
		return ok
	}

	for _, e := range snap.Expenses {
		if e.GroupID != snap.Group.ID {
			return nil, apperr.Integrity("expense %s belongs to group %s", e.ID, e.GroupID)
		}
		if !isMember(e.CreatorID) {
			return nil, apperr.Integrity("expense %s created by non-member %s", e.ID, e.CreatorID)
		}
		for _, sp := range e.Splits {
			switch {
			case sp.ExpenseID != uuid.Nil && sp.ExpenseID != e.ID:
				return nil, apperr.Integrity("split for %s attached to expense %s", sp.ExpenseID, e.ID)
			case !isMember(sp.UserID):
				return nil, apperr.Integrity("expense %s has split for non-member %s", e.ID, sp.UserID)
			case sp.Amount <= 0:
				return nil, apperr.Integrity("expense %s has non-positive split", e.ID)
			}
			if sp.UserID == e.CreatorID {
				continue
			}
			l.add(e.CreatorID, sp.UserID, sp.Amount)
		}
	}

	for _, st := range snap.Settlements {
		switch {
		case st.GroupID != snap.Group.ID:
			return nil, apperr.Integrity("settlement %s belongs to group %s", st.ID, st.GroupID)
		case st.PaidBy == st.PaidTo:
			return nil, apperr.Integrity("settlement %s pays itself", st.ID)
		case !isMember(st.PaidBy) || !isMember(st.PaidTo):
			return nil, apperr.Integrity("settlement %s references a non-member", st.ID)
		case st.Amount <= 0:
			return nil, apperr.Integrity("settlement %s has non-positive amount", st.ID)
		}
		l.add(st.PaidBy, st.PaidTo, st.Amount)
	}

	for k, v := range l.net {
		if v == 0 {
			delete(l.net, k)
		}
	}
	return l, nil
}

// add records that debtor owes creditor amount more.
func (l *Ledger) add(creditor, debtor uuid.UUID, amount models.Amount) {
	k, flipped := keyOf(creditor, debtor)
	if flipped {
		amount = -amount
	}
	l.net[k] += amount
}

// Net returns net(a,b): positive when b owes a, negative when a owes b.
func (l *Ledger) Net(a, b uuid.UUID) models.Amount {
	if a == b {
		return 0
	}
	k, flipped := keyOf(a, b)
	v := l.net[k]
	if flipped {
		return -v
	}
	return v
}

// Position returns the sum of net(u,v) over every other user v. Positions of
// all users in a group sum to zero.
func (l *Ledger) Position(u uuid.UUID) models.Amount {
	var sum models.Amount
	for k, v := range l.net {
		switch u {
		case k.lo:
			sum += v
		case k.hi:
			sum -= v
		}
	}
	return sum
}

// Pairs returns every nonzero balance oriented so the amount is positive,
// sorted by the two user ids.
func (l *Ledger) Pairs() []Pair {
	out := make([]Pair, 0, len(l.net))
	for k, v := range l.net {
		if v > 0 {
			out = append(out, Pair{A: k.lo, B: k.hi, Amount: v})
		} else {
			out = append(out, Pair{A: k.hi, B: k.lo, Amount: -v})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return less(out[i].A, out[j].A)
		}
		return less(out[i].B, out[j].B)
	})
	return out
}

// ForViewer returns the viewer's nonzero balances, one per other user,
// sorted by the other user's id.
func (l *Ledger) ForViewer(viewer uuid.UUID) []Balance {
	var out []Balance
	for k, v := range l.net {
		var other uuid.UUID
		switch viewer {
		case k.lo:
			other = k.hi
		case k.hi:
			other, v = k.lo, -v
		default:
			continue
		}
		out = append(out, toBalance(other, v))
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].OtherUserID, out[j].OtherUserID) })
	return out
}

// Between returns the balance between viewer and other; the amount may be zero.
func (l *Ledger) Between(viewer, other uuid.UUID) Balance {
	return toBalance(other, l.Net(viewer, other))
}

func toBalance(other uuid.UUID, net models.Amount) Balance {
	b := Balance{OtherUserID: other, NetAmount: net.Abs(), Direction: OwesYou}
	if net < 0 {
		b.Direction = YouOwe
	}
	return b
}

// SettleUp suggests transfers that bring every position to zero. It matches
// the largest debtor with the largest creditor until nothing is left, so a
// group of n users needs at most n-1 transfers.
func (l *Ledger) SettleUp() []Transfer {
	type position struct {
		user   uuid.UUID
		amount models.Amount
	}
	var creditors, debtors []position
	for _, u := range l.members {
		switch p := l.Position(u); {
		case p > 0:
			creditors = append(creditors, position{u, p})
		case p < 0:
			debtors = append(debtors, position{u, -p})
		}
	}
	byAmount := func(ps []position) {
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].amount > ps[j].amount })
	}
	byAmount(creditors)
	byAmount(debtors)

	var out []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amt := debtors[i].amount
		if creditors[j].amount < amt {
			amt = creditors[j].amount
		}
		out = append(out, Transfer{From: debtors[i].user, To: creditors[j].user, Amount: amt})
		debtors[i].amount -= amt
		creditors[j].amount -= amt
		if debtors[i].amount == 0 {
			i++
		}
		if creditors[j].amount == 0 {
			j++
		}
	}
	return out
}
