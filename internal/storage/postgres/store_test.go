package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/balance"
	"github.com/fkhayef/groupledger/internal/database"
	"github.com/fkhayef/groupledger/internal/models"
	"github.com/fkhayef/groupledger/internal/storage"
)

// newTestStore connects to TEST_DATABASE_URL. Every test works on fresh users
// and groups so runs do not interfere.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	if err := database.RunMigrations(url); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	db, err := database.NewPostgresConnection(url, 10, 2)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func createUser(t *testing.T, s *Store, name string) uuid.UUID {
	t.Helper()
	suffix := uuid.NewString()[:8]
	u := &models.User{Username: name + "-" + suffix, Email: name + "-" + suffix + "@example.com"}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u.ID
}

func TestLedgerRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice, bob, carol := createUser(t, s, "alice"), createUser(t, s, "bob"), createUser(t, s, "carol")

	g := &models.Group{Name: "Trip"}
	if err := s.CreateGroup(ctx, g, alice); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	var expenseID uuid.UUID
	err := s.InGroupTx(ctx, g.ID, func(tx storage.GroupTx) error {
		for _, id := range []uuid.UUID{bob, carol} {
			if err := tx.AddMember(ctx, &models.Member{UserID: id, Role: models.RoleMember}); err != nil {
				return err
			}
		}
		e := &models.Expense{
			CreatorID: alice, Title: "Dinner", TotalAmount: 30000, SplitType: models.SplitEqual,
			Splits: []models.Split{{UserID: alice, Amount: 10000}, {UserID: bob, Amount: 10000}, {UserID: carol, Amount: 10000}},
		}
		if err := tx.InsertExpense(ctx, e); err != nil {
			return err
		}
		expenseID = e.ID
		return tx.InsertSettlement(ctx, &models.Settlement{PaidBy: bob, PaidTo: alice, Amount: 4000, CreatedBy: bob})
	})
	if err != nil {
		t.Fatalf("InGroupTx: %v", err)
	}

	snap, err := s.Snapshot(ctx, g.ID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Version != 1 || len(snap.Members) != 3 || len(snap.Expenses) != 1 || len(snap.Settlements) != 1 {
		t.Fatalf("snapshot = v%d members=%d expenses=%d settlements=%d",
			snap.Version, len(snap.Members), len(snap.Expenses), len(snap.Settlements))
	}
	if got := snap.Expenses[0].Splits; len(got) != 3 || got[1].UserID != bob {
		t.Fatalf("splits out of order: %+v", got)
	}

	l, err := balance.Compute(snap)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if l.Net(alice, bob) != 6000 || l.Net(alice, carol) != 10000 {
		t.Fatalf("net(A,B)=%d net(A,C)=%d", l.Net(alice, bob), l.Net(alice, carol))
	}

	e, err := s.GetExpense(ctx, expenseID)
	if err != nil || e.TotalAmount != 30000 {
		t.Fatalf("GetExpense: %v %+v", err, e)
	}
	list, total, err := s.ListExpenses(ctx, g.ID, models.ExpenseFilter{CreatedBy: &bob}, models.Page{Limit: 10})
	if err != nil || total != 0 || len(list) != 0 {
		t.Fatalf("filtered list: err=%v total=%d", err, total)
	}
}

func TestFailedTxLeavesNoTrace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice, bob := createUser(t, s, "alice"), createUser(t, s, "bob")
	g := &models.Group{Name: "Flat"}
	if err := s.CreateGroup(ctx, g, alice); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := s.InGroupTx(ctx, g.ID, func(tx storage.GroupTx) error {
		if err := tx.InsertSettlement(ctx, &models.Settlement{PaidBy: alice, PaidTo: bob, Amount: 1, CreatedBy: alice}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if v, _ := s.LedgerVersion(ctx, g.ID); v != 0 {
		t.Fatalf("version = %d after rollback", v)
	}
	if _, n, _ := s.ListSettlements(ctx, g.ID, models.SettlementFilter{}, models.Page{}); n != 0 {
		t.Fatalf("%d settlements survived rollback", n)
	}
}

func TestMembershipRules(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice, bob := createUser(t, s, "alice"), createUser(t, s, "bob")
	g := &models.Group{Name: "Club"}
	if err := s.CreateGroup(ctx, g, alice); err != nil {
		t.Fatal(err)
	}

	add := func() error {
		return s.InGroupTx(ctx, g.ID, func(tx storage.GroupTx) error {
			return tx.AddMember(ctx, &models.Member{UserID: bob, Role: models.RoleMember})
		})
	}
	if err := add(); err != nil {
		t.Fatal(err)
	}
	if err := add(); !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("second add: err = %v", err)
	}
	err := s.InGroupTx(ctx, g.ID, func(tx storage.GroupTx) error { return tx.RemoveMember(ctx, bob) })
	if err != nil {
		t.Fatal(err)
	}
	if m, err := s.GetMember(ctx, g.ID, bob); err != nil || m.Active() {
		t.Fatalf("departed member = %+v, %v", m, err)
	}
	if err := add(); err != nil {
		t.Fatalf("re-adding departed member: %v", err)
	}

	err = s.InGroupTx(ctx, g.ID, func(tx storage.GroupTx) error {
		return tx.AddMember(ctx, &models.Member{UserID: uuid.New(), Role: models.RoleMember})
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("unknown user: err = %v", err)
	}
}

func TestConcurrentWritersSerialize(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice, bob := createUser(t, s, "alice"), createUser(t, s, "bob")
	g := &models.Group{Name: "Busy"}
	if err := s.CreateGroup(ctx, g, alice); err != nil {
		t.Fatal(err)
	}
	err := s.InGroupTx(ctx, g.ID, func(tx storage.GroupTx) error {
		return tx.AddMember(ctx, &models.Member{UserID: bob, Role: models.RoleMember})
	})
	if err != nil {
		t.Fatal(err)
	}

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.InGroupTx(ctx, g.ID, func(tx storage.GroupTx) error {
				return tx.InsertExpense(ctx, &models.Expense{
					CreatorID: alice, Title: "Round", TotalAmount: 500, SplitType: models.SplitCustom,
					Splits: []models.Split{{UserID: bob, Amount: 500}},
				})
			})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	snap, err := s.Snapshot(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Version != writers+1 || len(snap.Expenses) != writers {
		t.Fatalf("version=%d expenses=%d", snap.Version, len(snap.Expenses))
	}
}

func TestExpenseReadsDuringUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice, bob, carol := createUser(t, s, "alice"), createUser(t, s, "bob"), createUser(t, s, "carol")
	g := &models.Group{Name: "Flat"}
	if err := s.CreateGroup(ctx, g, alice); err != nil {
		t.Fatal(err)
	}

	one := []models.Split{{UserID: bob, Amount: 10000}}
	three := []models.Split{{UserID: alice, Amount: 10000}, {UserID: bob, Amount: 10000}, {UserID: carol, Amount: 10000}}
	e := &models.Expense{CreatorID: alice, Title: "Rent", TotalAmount: 10000, SplitType: models.SplitCustom, Splits: one}
	err := s.InGroupTx(ctx, g.ID, func(tx storage.GroupTx) error {
		for _, id := range []uuid.UUID{bob, carol} {
			if err := tx.AddMember(ctx, &models.Member{UserID: id, Role: models.RoleMember}); err != nil {
				return err
			}
		}
		return tx.InsertExpense(ctx, e)
	})
	if err != nil {
		t.Fatal(err)
	}

	consistent := func(x models.Expense) bool {
		var sum models.Amount
		for _, sp := range x.Splits {
			sum += sp.Amount
		}
		return sum == x.TotalAmount
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := 0; i < 50; i++ {
			next := *e
			next.Splits, next.TotalAmount = one, 10000
			if i%2 == 0 {
				next.Splits, next.TotalAmount = three, 30000
			}
			if err := s.InGroupTx(ctx, g.ID, func(tx storage.GroupTx) error {
				return tx.UpdateExpense(ctx, &next)
			}); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				got, err := s.GetExpense(ctx, e.ID)
				if err != nil {
					t.Error(err)
					return
				}
				if !consistent(*got) {
					t.Errorf("GetExpense: total %s with splits %+v", got.TotalAmount, got.Splits)
					return
				}
				list, _, err := s.ListExpenses(ctx, g.ID, models.ExpenseFilter{}, models.Page{Limit: 10})
				if err != nil {
					t.Error(err)
					return
				}
				for _, x := range list {
					if !consistent(x) {
						t.Errorf("ListExpenses: total %s with splits %+v", x.TotalAmount, x.Splits)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}
