package group

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/apperr"
	"github.com/fkhayef/groupledger/internal/ledgertest"
	"github.com/fkhayef/groupledger/internal/models"
	"github.com/fkhayef/groupledger/internal/storage"
)

func newTestService(t *testing.T) (*Service, *ledgertest.Fixture) {
	t.Helper()
	f := ledgertest.Seed(t, "alice", "bob", "carol")
	return NewService(f.Writer), f
}

func owe(t *testing.T, f *ledgertest.Fixture, creditor, debtor string, amount models.Amount) {
	t.Helper()
	ctx := context.Background()
	err := f.Store.InGroupTx(ctx, f.Group.ID, func(tx storage.GroupTx) error {
		return tx.InsertExpense(ctx, &models.Expense{
			CreatorID:   f.Users[creditor],
			Title:       "Tab",
			TotalAmount: amount,
			SplitType:   models.SplitCustom,
			Splits:      []models.Split{{UserID: f.Users[debtor], Amount: amount}},
		})
	})
	if err != nil {
		t.Fatal(err)
	}
}

func settle(t *testing.T, f *ledgertest.Fixture, by, to string, amount models.Amount) {
	t.Helper()
	ctx := context.Background()
	err := f.Store.InGroupTx(ctx, f.Group.ID, func(tx storage.GroupTx) error {
		return tx.InsertSettlement(ctx, &models.Settlement{
			PaidBy: f.Users[by], PaidTo: f.Users[to], Amount: amount, CreatedBy: f.Users[by],
		})
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCreateGroupMakesCreatorAdmin(t *testing.T) {
	svc, f := newTestService(t)
	dave := f.AddUser(t, "dave")

	g, err := svc.Create(context.Background(), dave, &CreateGroupRequest{Name: " Ski week "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if g.Name != "Ski week" || len(g.Members) != 1 || g.Members[0].Role != models.RoleAdmin || g.Members[0].Username != "dave" {
		t.Fatalf("group = %+v", g)
	}

	if _, err := svc.Create(context.Background(), uuid.New(), &CreateGroupRequest{Name: "x"}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("unknown creator: err = %v", err)
	}
}

func TestAddMember(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()
	dave := f.AddUser(t, "dave")

	if _, err := svc.AddMember(ctx, f.Group.ID, f.Users["bob"], &AddMemberRequest{UserID: dave}); apperr.KindOf(err) != apperr.KindAuthorization {
		t.Fatalf("non-admin add: err = %v", err)
	}
	m, err := svc.AddMember(ctx, f.Group.ID, f.Users["alice"], &AddMemberRequest{UserID: dave})
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if m.Role != models.RoleMember || m.Username != "dave" {
		t.Fatalf("member = %+v", m)
	}
	if _, err := svc.AddMember(ctx, f.Group.ID, f.Users["alice"], &AddMemberRequest{UserID: dave}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("duplicate add: err = %v", err)
	}
	if _, err := svc.AddMember(ctx, f.Group.ID, f.Users["alice"], &AddMemberRequest{UserID: uuid.New()}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("unknown user: err = %v", err)
	}

	n, _ := f.Store.UnreadNotificationCount(ctx, dave)
	if n != 1 {
		t.Errorf("dave has %d notifications, want 1", n)
	}
}

func TestRemoveMemberBalanceGuard(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()
	owe(t, f, "alice", "carol", 2500)

	err := svc.RemoveMember(ctx, f.Group.ID, f.Users["alice"], f.Users["carol"])
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("remove with open balance: err = %v", err)
	}

	settle(t, f, "carol", "alice", 2500)
	if err := svc.RemoveMember(ctx, f.Group.ID, f.Users["alice"], f.Users["carol"]); err != nil {
		t.Fatalf("RemoveMember after settling: %v", err)
	}

	members, err := svc.GetMembers(ctx, f.Group.ID, f.Users["alice"])
	if err != nil || len(members) != 2 {
		t.Fatalf("members after removal: err=%v n=%d", err, len(members))
	}
	// History still resolves with carol gone.
	if pairs := f.Pairs(t); len(pairs) != 0 {
		t.Fatalf("pairs = %+v", pairs)
	}
}

func TestRemoveMemberPermissions(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()

	if err := svc.RemoveMember(ctx, f.Group.ID, f.Users["bob"], f.Users["carol"]); apperr.KindOf(err) != apperr.KindAuthorization {
		t.Fatalf("bob removing carol: err = %v", err)
	}
	if err := svc.RemoveMember(ctx, f.Group.ID, f.Users["bob"], f.Users["bob"]); err != nil {
		t.Fatalf("bob leaving: %v", err)
	}
	if err := svc.RemoveMember(ctx, f.Group.ID, f.Users["alice"], f.Users["bob"]); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("removing departed member: err = %v", err)
	}
}

func TestLastAdminLeavingPromotesLongestStanding(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()

	if err := svc.RemoveMember(ctx, f.Group.ID, f.Users["alice"], f.Users["alice"]); err != nil {
		t.Fatalf("alice leaving: %v", err)
	}
	bob, err := f.Store.GetMember(ctx, f.Group.ID, f.Users["bob"])
	if err != nil {
		t.Fatal(err)
	}
	if !bob.IsAdmin() {
		t.Fatalf("bob role = %s, want admin", bob.Role)
	}
	carol, _ := f.Store.GetMember(ctx, f.Group.ID, f.Users["carol"])
	if carol.IsAdmin() {
		t.Fatal("only one member should be promoted")
	}
}

func TestUpdateMemberRole(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()

	if _, err := svc.UpdateMember(ctx, f.Group.ID, f.Users["alice"], f.Users["alice"], &UpdateMemberRequest{Role: models.RoleMember}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("demoting last admin: err = %v", err)
	}
	m, err := svc.UpdateMember(ctx, f.Group.ID, f.Users["alice"], f.Users["bob"], &UpdateMemberRequest{Role: models.RoleAdmin})
	if err != nil || m.Role != models.RoleAdmin {
		t.Fatalf("promote bob: err=%v %+v", err, m)
	}
	if _, err := svc.UpdateMember(ctx, f.Group.ID, f.Users["alice"], f.Users["alice"], &UpdateMemberRequest{Role: models.RoleMember}); err != nil {
		t.Fatalf("alice stepping down with another admin: %v", err)
	}
	if _, err := svc.UpdateMember(ctx, f.Group.ID, f.Users["carol"], f.Users["carol"], &UpdateMemberRequest{Role: models.RoleAdmin}); apperr.KindOf(err) != apperr.KindAuthorization {
		t.Fatalf("self promotion: err = %v", err)
	}
}

func TestUpdateGroupAndAccess(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()
	outsider := f.AddUser(t, "mallory")
	name := "Road trip"

	if _, err := svc.Update(ctx, f.Group.ID, f.Users["bob"], &UpdateGroupRequest{Name: &name}); apperr.KindOf(err) != apperr.KindAuthorization {
		t.Fatalf("non-admin update: err = %v", err)
	}
	g, err := svc.Update(ctx, f.Group.ID, f.Users["alice"], &UpdateGroupRequest{Name: &name})
	if err != nil || g.Name != name {
		t.Fatalf("update: err=%v %+v", err, g)
	}
	if _, err := svc.GetByIDWithMembers(ctx, f.Group.ID, outsider); apperr.KindOf(err) != apperr.KindAuthorization {
		t.Fatalf("outsider get: err = %v", err)
	}

	list, total, err := svc.ListByUserID(ctx, f.Users["carol"], models.Page{Limit: 20})
	if err != nil || total != 1 || list[0].Name != name {
		t.Fatalf("list: err=%v total=%d", err, total)
	}
}
