package settlement

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/apperr"
	"github.com/fkhayef/groupledger/internal/balance"
	"github.com/fkhayef/groupledger/internal/ledgertest"
	"github.com/fkhayef/groupledger/internal/models"
	"github.com/fkhayef/groupledger/internal/storage"
)

// newTestService seeds a group where bob and carol each owe alice 100.00.
func newTestService(t *testing.T) (*Service, *ledgertest.Fixture) {
	t.Helper()
	f := ledgertest.Seed(t, "alice", "bob", "carol")
	ctx := context.Background()
	err := f.Store.InGroupTx(ctx, f.Group.ID, func(tx storage.GroupTx) error {
		return tx.InsertExpense(ctx, &models.Expense{
			CreatorID:   f.Users["alice"],
			Title:       "Dinner",
			TotalAmount: 30000,
			SplitType:   models.SplitEqual,
			Splits: []models.Split{
				{UserID: f.Users["alice"], Amount: 10000},
				{UserID: f.Users["bob"], Amount: 10000},
				{UserID: f.Users["carol"], Amount: 10000},
			},
		})
	})
	if err != nil {
		t.Fatalf("seed expense: %v", err)
	}
	f.Balances.Invalidate(f.Group.ID)
	return NewService(f.Writer), f
}

func pay(f *ledgertest.Fixture, to string, amount models.Amount) *CreateSettlementRequest {
	return &CreateSettlementRequest{GroupID: f.Group.ID, PaidTo: f.Users[to], Amount: amount, Note: "cash"}
}

func TestSettlementReducesDebt(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()

	st, err := svc.CreateSettlement(ctx, f.Users["bob"], pay(f, "alice", 4000))
	if err != nil {
		t.Fatalf("CreateSettlement: %v", err)
	}
	if st.PaidBy != f.Users["bob"] || st.CreatedBy != f.Users["bob"] || st.CanEdit || !st.CanDelete {
		t.Fatalf("response = %+v", st)
	}
	if got := f.Net(t, "alice", "bob"); got != 6000 {
		t.Fatalf("net(alice,bob) = %d, want 6000", got)
	}

	if _, err := svc.CreateSettlement(ctx, f.Users["bob"], pay(f, "alice", 6000)); err != nil {
		t.Fatalf("settle remainder: %v", err)
	}
	if got := f.Net(t, "alice", "bob"); got != 0 {
		t.Fatalf("net(alice,bob) = %d, want 0", got)
	}
	if got := f.Net(t, "alice", "carol"); got != 10000 {
		t.Fatalf("net(alice,carol) = %d, want 10000", got)
	}

	n, _ := f.Store.UnreadNotificationCount(ctx, f.Users["alice"])
	if n != 2 {
		t.Errorf("alice has %d notifications, want 2", n)
	}
}

func TestCreateSettlementRules(t *testing.T) {
	svc, f := newTestService(t)
	stranger := f.AddUser(t, "mallory")

	tests := []struct {
		name   string
		viewer string
		req    func() *CreateSettlementRequest
		want   apperr.Kind
	}{
		{"overpayment", "bob", func() *CreateSettlementRequest { return pay(f, "alice", 10001) }, apperr.KindValidation},
		{"creditor pays debtor", "alice", func() *CreateSettlementRequest { return pay(f, "bob", 100) }, apperr.KindValidation},
		{"self", "bob", func() *CreateSettlementRequest { return pay(f, "bob", 100) }, apperr.KindValidation},
		{"zero amount", "bob", func() *CreateSettlementRequest { return pay(f, "alice", 0) }, apperr.KindValidation},
		{"payee not a member", "bob", func() *CreateSettlementRequest {
			r := pay(f, "alice", 100)
			r.PaidTo = stranger
			return r
		}, apperr.KindValidation},
		{"member records for someone else", "bob", func() *CreateSettlementRequest {
			r := pay(f, "alice", 100)
			carol := f.Users["carol"]
			r.PaidBy = &carol
			return r
		}, apperr.KindAuthorization},
		{"unknown group", "bob", func() *CreateSettlementRequest {
			r := pay(f, "alice", 100)
			r.GroupID = uuid.New()
			return r
		}, apperr.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSettlement(context.Background(), f.Users[tt.viewer], tt.req())
			if got := apperr.KindOf(err); got != tt.want {
				t.Fatalf("err = %v (kind %s), want %s", err, got, tt.want)
			}
		})
	}

	t.Run("outsider", func(t *testing.T) {
		_, err := svc.CreateSettlement(context.Background(), stranger, pay(f, "alice", 100))
		if apperr.KindOf(err) != apperr.KindAuthorization {
			t.Fatalf("err = %v", err)
		}
	})

	if got := f.Net(t, "alice", "bob"); got != 10000 {
		t.Fatalf("rejected settlements changed balances: net(alice,bob) = %d", got)
	}
}

func TestAdminRecordsPaymentForMember(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()

	carol := f.Users["carol"]
	req := pay(f, "alice", 2500)
	req.PaidBy = &carol
	st, err := svc.CreateSettlement(ctx, f.Users["alice"], req)
	if err != nil {
		t.Fatalf("CreateSettlement: %v", err)
	}
	if st.PaidBy != carol || st.CreatedBy != f.Users["alice"] {
		t.Fatalf("settlement = %+v", st)
	}
	if got := f.Net(t, "alice", "carol"); got != 7500 {
		t.Fatalf("net(alice,carol) = %d, want 7500", got)
	}
	n, _ := f.Store.UnreadNotificationCount(ctx, carol)
	if n != 1 {
		t.Errorf("carol has %d notifications, want 1", n)
	}
}

func TestDeleteSettlementRestoresDebt(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()

	st, err := svc.CreateSettlement(ctx, f.Users["bob"], pay(f, "alice", 4000))
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteSettlement(ctx, f.Group.ID, st.ID, f.Users["carol"]); apperr.KindOf(err) != apperr.KindAuthorization {
		t.Fatalf("carol delete: err = %v", err)
	}
	if err := svc.DeleteSettlement(ctx, uuid.New(), st.ID, f.Users["bob"]); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("wrong group: err = %v", err)
	}
	if err := svc.DeleteSettlement(ctx, f.Group.ID, uuid.New(), f.Users["bob"]); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("missing settlement: err = %v", err)
	}
	if err := svc.DeleteSettlement(ctx, f.Group.ID, st.ID, f.Users["bob"]); err != nil {
		t.Fatalf("DeleteSettlement: %v", err)
	}
	if got := f.Net(t, "alice", "bob"); got != 10000 {
		t.Fatalf("net(alice,bob) = %d, want 10000", got)
	}
}

func TestDeleteSettlementOfDepartedMember(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()

	st, err := svc.CreateSettlement(ctx, f.Users["bob"], pay(f, "alice", 10000))
	if err != nil {
		t.Fatal(err)
	}
	err = f.Store.InGroupTx(ctx, f.Group.ID, func(tx storage.GroupTx) error {
		return tx.RemoveMember(ctx, f.Users["bob"])
	})
	if err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}

	err = svc.DeleteSettlement(ctx, f.Group.ID, st.ID, f.Users["alice"])
	if !errors.Is(err, balance.ErrDepartedBalance) {
		t.Fatalf("DeleteSettlement: err = %v, want departed balance error", err)
	}
	if got := f.Net(t, "alice", "bob"); got != 0 {
		t.Fatalf("net(alice,bob) = %d, want 0", got)
	}
}

func TestGetAndListSettlements(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()

	byBob, err := svc.CreateSettlement(ctx, f.Users["bob"], pay(f, "alice", 1000))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateSettlement(ctx, f.Users["carol"], pay(f, "alice", 2000)); err != nil {
		t.Fatal(err)
	}

	all, total, err := svc.ListSettlements(ctx, f.Group.ID, f.Users["alice"], ListSettlementsRequest{Page: models.Page{Limit: 100}})
	if err != nil || total != 2 || len(all) != 2 {
		t.Fatalf("list: err=%v total=%d", err, total)
	}
	for _, st := range all {
		if !st.CanDelete {
			t.Errorf("admin alice should be able to delete %s", st.ID)
		}
	}

	paidBy := f.Users["carol"]
	filtered, total, err := svc.ListSettlements(ctx, f.Group.ID, f.Users["bob"], ListSettlementsRequest{
		Filter: models.SettlementFilter{PaidBy: &paidBy},
		Page:   models.Page{Limit: 100},
	})
	if err != nil || total != 1 || filtered[0].Amount != 2000 {
		t.Fatalf("paid_by filter: err=%v %+v", err, filtered)
	}
	if filtered[0].CanDelete {
		t.Error("bob should not be able to delete carol's settlement")
	}

	got, err := svc.GetSettlement(ctx, f.Group.ID, byBob.ID, f.Users["carol"])
	if err != nil || got.PaidByUsername != "bob" || got.PaidToUsername != "alice" {
		t.Fatalf("get: err=%v %+v", err, got)
	}
	if _, err := svc.GetSettlement(ctx, uuid.New(), byBob.ID, f.Users["carol"]); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("get in unknown group: err = %v", err)
	}
}
